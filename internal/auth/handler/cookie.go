package handler

import "net/http"

// refreshCookieName follows the __Host- prefix convention: the cookie
// is bound to this host, always Secure, and scoped to "/".
const refreshCookieName = "__Host-refresh_token"

// setRefreshCookie mirrors the refresh token into an HttpOnly cookie so
// browser clients never have to store it in script-readable storage.
// The response body remains the canonical transport.
func setRefreshCookie(w http.ResponseWriter, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func refreshTokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
