// Package auth implements account registration, credential verification and
// cookie-session authentication for the web UI.
//
// Passwords are stored as bcrypt hashes. Sessions live in the application's
// SQLite database via alexedwards/scs, and form posts are protected with
// gorilla/csrf. The first account ever registered becomes the administrator;
// the bootstrap is serialized so concurrent first registrations cannot both
// win.
package auth
