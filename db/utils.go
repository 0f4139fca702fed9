package db

var (
	NamespaceIncompleteBlock = []byte("ib")
	NamespaceCheckpoint      = []byte("cp")
	EmptyKey                 = []byte{}
	Separator                = []byte("|")
)

// PrependNamespace returns namespace|key in a new slice.
func PrependNamespace(namespace []byte, key []byte) []byte {
	if namespace == nil {
		return key
	}
	prefixed := make([]byte, 0, len(namespace)+len(Separator)+len(key))
	prefixed = append(prefixed, namespace...)
	prefixed = append(prefixed, Separator...)
	return append(prefixed, key...)
}

// StripNamespace removes the namespace| prefix added by PrependNamespace.
func StripNamespace(namespace []byte, key []byte) []byte {
	prefixLen := len(namespace) + len(Separator)
	if namespace == nil || len(key) < prefixLen {
		return key
	}
	return key[prefixLen:]
}

// NamespaceRange returns the iterator bounds covering every key of namespace.
func NamespaceRange(namespace []byte) ([]byte, []byte) {
	start := PrependNamespace(namespace, nil)
	end := make([]byte, len(start))
	copy(end, start)
	end[len(end)-1]++
	return start, end
}

func ConvNilToBytes(byteArray []byte) []byte {
	if byteArray == nil {
		return []byte{}
	}
	return byteArray
}
