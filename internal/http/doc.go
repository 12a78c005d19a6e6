// Package http provides the HTTP handlers and middleware for the study portal API.
//
// All API routes live under /api and exchange JSON unless noted:
//   - POST /auth/login: body {"username","password"}. Response
//     {"role","mustChangePassword"} plus the signed `portal.sid` session cookie.
//     Every failed check answers 400 {"message":"Invalid credentials."}.
//   - POST /auth/logout: destroys the current session if any and clears the cookie.
//   - POST /auth/change-password: body {"oldPassword","newPassword"}; requires a session.
//   - GET /auth/me: {"loggedIn","role","mustChangePassword","username"}, or
//     {"loggedIn":false} without a session. mustChangePassword is read live.
//   - GET /announcements (public) and POST /announcements/post (admin).
//   - GET /materials (session), POST /materials/upload (admin, multipart fields
//     title, description and file) and GET /materials/download/{id} (session,
//     streamed as an attachment).
//   - GET /students, POST /students/create and POST /students/reset-password (admin).
//
// Outside /api the router serves GET /healthz, GET /metrics and, when configured,
// a static single page application.
//
// Errors are always JSON bodies of the form {"message", "errors"?}. The session
// middleware resolves the cookie once and places the principal in the request
// context; handlers pass it explicitly to the application services.
package http
