// Package cookie writes the refresh token to browser clients.
package cookie

import (
	"net/http"
	"time"
)

// Options scope the refresh cookie.
type Options struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// Write sets an HTTP-only cookie carrying value for maxAge. A non-positive
// maxAge deletes the cookie.
func Write(w http.ResponseWriter, name, value string, maxAge time.Duration, opts Options) {
	sameSite := opts.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteStrictMode
	}
	path := opts.Path
	if path == "" {
		path = "/"
	}

	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: sameSite,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge / time.Second)
		c.Expires = time.Now().Add(maxAge).UTC()
	} else {
		c.Value = ""
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	}
	http.SetCookie(w, c)
}

// Transport binds Options to one response and implements
// ports.RefreshTransport.
type Transport struct {
	w    http.ResponseWriter
	opts Options
}

func NewTransport(w http.ResponseWriter, opts Options) *Transport {
	return &Transport{w: w, opts: opts}
}

func (t *Transport) WriteRefreshToken(token string, maxAge time.Duration) {
	Write(t.w, t.opts.Name, token, maxAge, t.opts)
}

func (t *Transport) ClearRefreshToken() {
	Write(t.w, t.opts.Name, "", 0, t.opts)
}
