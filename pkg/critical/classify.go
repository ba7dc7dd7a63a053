package critical

import (
	"net/url"
	"path"
	"strings"

	"github.com/critlens/critlens/pkg/trace"
)

// blockingTypes are the resource classes that can block rendering.
// XHR and fetch block only when issued by the parser (checked separately).
var blockingTypes = map[trace.ResourceType]bool{
	trace.ResourceDocument:   true,
	trace.ResourceScript:     true,
	trace.ResourceStylesheet: true,
}

// faviconMimeTypes are mime types that identify a favicon regardless of its
// filename.
var faviconMimeTypes = map[string]bool{
	"image/x-icon":             true,
	"image/vnd.microsoft.icon": true,
	"image/icon":               true,
	"application/ico":          true,
	"application/x-icon":       true,
}

// IsCritical reports whether a single request sits on the page's
// rendering-blocking path. It is a pure function of rec and the trace's
// root document and considers no graph structure.
//
// The root document is always critical. Otherwise a request is critical
// when it belongs to a rendering-blocking resource class (document, script,
// stylesheet, or parser-issued XHR/fetch) at medium or higher priority -
// unless an exclusion applies: favicons, documents loaded into sub-frames,
// and speculative link preloads are never critical. Unknown resource types
// and priorities fail closed (never critical).
func IsCritical(rec, root *trace.RequestRecord) bool {
	if root != nil && rec.ID == root.ID {
		return true
	}
	if rec.IsLinkPreload {
		return false
	}
	if IsFavicon(rec) {
		return false
	}
	// A document in a frame other than the root's is an iframe document.
	if rec.ResourceType == trace.ResourceDocument && root != nil && rec.FrameID != root.FrameID {
		return false
	}
	if !isBlockingClass(rec) {
		return false
	}
	return rec.Priority.AtLeast(trace.PriorityMedium)
}

// isBlockingClass reports whether the record's resource type can block
// rendering. XHR/fetch qualify only when the parser issued them
// (synchronous requests encountered during document parsing).
func isBlockingClass(rec *trace.RequestRecord) bool {
	if blockingTypes[rec.ResourceType] {
		return true
	}
	if rec.ResourceType == trace.ResourceXHR || rec.ResourceType == trace.ResourceFetch {
		return rec.Initiator != nil && rec.Initiator.Kind == trace.InitiatorParser
	}
	return false
}

// IsFavicon reports whether the record fetched a favicon, by filename
// convention on the URL's last path component or by icon mime type.
func IsFavicon(rec *trace.RequestRecord) bool {
	if faviconMimeTypes[strings.ToLower(rec.MimeType)] {
		return true
	}
	u, err := url.Parse(rec.URL)
	if err != nil {
		return false
	}
	name := strings.ToLower(path.Base(u.Path))
	if name == "favicon" || name == "favicon.ico" {
		return true
	}
	return strings.HasPrefix(name, "favicon.") && strings.Count(name, ".") == 1
}
