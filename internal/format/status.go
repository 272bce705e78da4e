package format

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Bucket is the status-code class of a response.
type Bucket string

const (
	BucketNone Bucket = ""
	Bucket2xx  Bucket = "2xx"
	Bucket3xx  Bucket = "3xx"
	Bucket4xx  Bucket = "4xx"
	Bucket5xx  Bucket = "5xx"
)

// StatusClass maps a status code to its hundred-range bucket. Codes outside
// 200..599 have no bucket.
func StatusClass(code int) Bucket {
	switch {
	case code >= 200 && code < 300:
		return Bucket2xx
	case code >= 300 && code < 400:
		return Bucket3xx
	case code >= 400 && code < 500:
		return Bucket4xx
	case code >= 500 && code < 600:
		return Bucket5xx
	default:
		return BucketNone
	}
}

// StatusBucket is StatusClass for an optional status.
func StatusBucket(status *int) Bucket {
	if status == nil {
		return BucketNone
	}
	return StatusClass(*status)
}

func StatusColor(b Bucket) tcell.Color {
	switch b {
	case Bucket2xx:
		return tcell.NewHexColor(0x4CAF50)
	case Bucket3xx:
		return tcell.NewHexColor(0x2196F3)
	case Bucket4xx:
		return tcell.NewHexColor(0xFF9800)
	case Bucket5xx:
		return tcell.NewHexColor(0xF44336)
	default:
		return tcell.ColorDefault
	}
}

func MethodColor(method string) tcell.Color {
	switch strings.ToUpper(method) {
	case "GET":
		return tcell.NewHexColor(0x61AFFE)
	case "POST":
		return tcell.NewHexColor(0x49CC90)
	case "PUT":
		return tcell.NewHexColor(0xFCA130)
	case "PATCH":
		return tcell.NewHexColor(0x50E3C2)
	case "DELETE":
		return tcell.NewHexColor(0xF93E3E)
	default:
		return tcell.ColorWhite
	}
}

// StatusText renders an optional status code, empty when absent.
func StatusText(status *int) string {
	if status == nil {
		return ""
	}
	return itoa(int64(*status))
}
