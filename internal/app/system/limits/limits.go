// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// JSONBody is the maximum size of a JSON request body.
	JSONBody = 1 << 20 // 1 MB

	// ProfileImage caps a profile image upload.
	ProfileImage = 5 << 20 // 5 MB

	// TaskDocument caps a single task attachment.
	TaskDocument = 10 << 20 // 10 MB

	// MultipartOverhead is allowed on top of a file limit for the form's
	// boundaries and other fields.
	MultipartOverhead = 1 << 20

	// MultipartMemory is how much of a multipart body is held in memory
	// before spilling to temp files.
	MultipartMemory = 8 << 20
)
