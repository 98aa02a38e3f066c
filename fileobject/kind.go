package fileobject

import "strings"

// Kind classifies a file object by the role its contents play in a
// compilation, derived once from the file's path extension.
type Kind int

const (
	// KindOther covers anything that isn't source, class or html output —
	// resources, service descriptors, native headers, and so on.
	KindOther Kind = iota
	KindSource
	KindClass
	KindHTML
)

// Extension returns the conventional file extension for the kind,
// including the leading dot.
func (k Kind) Extension() string {
	switch k {
	case KindSource:
		return ".java"
	case KindClass:
		return ".class"
	case KindHTML:
		return ".html"
	default:
		return ""
	}
}

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "SOURCE"
	case KindClass:
		return "CLASS"
	case KindHTML:
		return "HTML"
	default:
		return "OTHER"
	}
}

// AllKinds lists every kind (source, class, HTML, other) — used by list()
// operations whose caller passes the full kind set.
func AllKinds() []Kind {
	return []Kind{KindSource, KindClass, KindHTML, KindOther}
}

// KindOf derives a Kind from a path by matching its extension. Paths with
// no recognised extension are KindOther.
func KindOf(path string) Kind {
	switch {
	case strings.HasSuffix(path, KindSource.Extension()):
		return KindSource
	case strings.HasSuffix(path, KindClass.Extension()):
		return KindClass
	case strings.HasSuffix(path, KindHTML.Extension()):
		return KindHTML
	default:
		return KindOther
	}
}
