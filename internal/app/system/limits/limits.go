// internal/app/system/limits/limits.go
package limits

// Request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxRequestBody caps every request body. Banner and profile photo
	// uploads arrive base64-encoded inside JSON, so this is sized for them.
	MaxRequestBody = 12 << 20 // 12 MB
)
