package admin

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes caps admin request bodies at 1 MiB. Endpoint
// definitions are small; anything larger is a mistake or an attack.
const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst, enforcing the size cap.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
