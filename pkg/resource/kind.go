package resource

// Kind is the type of a resolved resource
type Kind int

const (
	// KindFile is a file entry, or a resource defined only by its sidecar
	KindFile Kind = iota
	// KindFolder is a directory entry
	KindFolder
	// KindSynthetic is an intermediate folder without archive entry of its own
	KindSynthetic
)

// Resource types exposed through the resource type property
const (
	TypeFile      = "nt:file"
	TypeFolder    = "nt:folder"
	TypeSynthetic = "sling:Folder"
)

// PropResourceType is the property holding the resource type
const PropResourceType = "sling:resourceType"

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	case KindSynthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// ResourceType returns the resource type marker of k
func (k Kind) ResourceType() string {
	switch k {
	case KindFolder:
		return TypeFolder
	case KindSynthetic:
		return TypeSynthetic
	default:
		return TypeFile
	}
}

// IsFolder reports whether resources of kind k have children
func (k Kind) IsFolder() bool {
	return k == KindFolder || k == KindSynthetic
}
