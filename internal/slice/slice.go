package slice

func Remove[T any](slice []T, stId int, endId int) []T {
	newSlice := make([]T, len(slice)-endId+stId)

	copy(newSlice, slice[:stId])
	copy(newSlice[stId:], slice[endId:])

	return newSlice
}

func IsSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func TrimSpaces(line []byte, id int) int {
	for id < len(line) && IsSpace(line[id]) {
		id++
	}

	return id
}

// TrimRightSpaces returns the index just past the last non-space byte.
func TrimRightSpaces(line []byte) int {
	end := len(line)
	for end > 0 && IsSpace(line[end-1]) {
		end--
	}

	return end
}
