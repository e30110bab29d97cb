package httputil

import "net/http"

// UserAgent identifies this client to the catalog service.
const UserAgent = "storefront-client/1.0"

// JSONHeaders returns the headers sent with every API request.
func JSONHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Accept-Encoding", "gzip, br")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	return h
}

// Apply copies h into req without overwriting headers already set.
func Apply(req *http.Request, h http.Header) {
	for key, vals := range h {
		if req.Header.Get(key) != "" {
			continue
		}
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
}
