package parser

// Batches partitions items into consecutive groups of at most size elements.
// It returns ceil(len(items)/size) groups; every group but the last has
// exactly size elements. A size below 1 is treated as 1. The groups share
// the backing array of items.
func Batches[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}

	groups := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		groups = append(groups, items[start:end:end])
	}
	return groups
}
