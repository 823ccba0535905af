package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// compressResponseWriter routes the body through an encoder.
type compressResponseWriter struct {
	io.Writer
	http.ResponseWriter
	wroteHeader bool
}

func (w *compressResponseWriter) WriteHeader(status int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *compressResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.Writer.Write(b)
}

var (
	brPool = sync.Pool{
		New: func() interface{} {
			return brotli.NewWriterLevel(io.Discard, brotli.BestSpeed)
		},
	}
	gzPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
)

// negotiateEncoding picks br over gzip when the client accepts both.
func negotiateEncoding(accept string) string {
	var gz bool
	for _, part := range strings.Split(accept, ",") {
		name := strings.TrimSpace(part)
		if i := strings.IndexByte(name, ';'); i >= 0 {
			if strings.Contains(name[i:], "q=0") && !strings.Contains(name[i:], "q=0.") {
				continue
			}
			name = strings.TrimSpace(name[:i])
		}
		switch name {
		case "br":
			return "br"
		case "gzip":
			gz = true
		}
	}
	if gz {
		return "gzip"
	}
	return ""
}

// Compress encodes responses with brotli or gzip depending on the
// client's Accept-Encoding header. WebSocket upgrades pass through.
func Compress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Accept-Encoding")

		var enc io.WriteCloser
		switch negotiateEncoding(r.Header.Get("Accept-Encoding")) {
		case "br":
			bw := brPool.Get().(*brotli.Writer)
			defer brPool.Put(bw)
			bw.Reset(w)
			enc = bw
			w.Header().Set("Content-Encoding", "br")
		case "gzip":
			gw := gzPool.Get().(*gzip.Writer)
			defer gzPool.Put(gw)
			gw.Reset(w)
			enc = gw
			w.Header().Set("Content-Encoding", "gzip")
		default:
			next.ServeHTTP(w, r)
			return
		}
		defer enc.Close()

		// Length will change after compression
		w.Header().Del("Content-Length")
		next.ServeHTTP(&compressResponseWriter{Writer: enc, ResponseWriter: w}, r)
	})
}
