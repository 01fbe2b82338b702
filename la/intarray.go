package la

// IntArrayContainer is a growable int array paired with its in-use
// length, used for sorted index bookkeeping during tree splitting and
// graph traversal. It is barely more than a tuple; callers maintain the
// size invariant.
type IntArrayContainer struct {
	Array []int
	Size  int
}

// NewIntArrayContainer returns a container with the given initial
// backing capacity and zero size.
func NewIntArrayContainer(initialCapacity int) *IntArrayContainer {
	return &IntArrayContainer{Array: make([]int, initialCapacity)}
}

// Grow ensures the backing array holds at least requestedSize elements,
// copying existing elements on reallocation.
func (c *IntArrayContainer) Grow(requestedSize int) {
	if requestedSize <= len(c.Array) {
		return
	}
	newCapacity := len(c.Array) + len(c.Array)/2
	if newCapacity < requestedSize {
		newCapacity = requestedSize
	}
	grown := make([]int, newCapacity)
	copy(grown, c.Array)
	c.Array = grown
}

// Copy returns the elements in use as a fresh slice.
func (c *IntArrayContainer) Copy() []int {
	out := make([]int, c.Size)
	copy(out, c.Array[:c.Size])
	return out
}

// Fill overwrites the container's contents with other.
func (c *IntArrayContainer) Fill(other []int) {
	if len(other) > len(c.Array) {
		c.Array = make([]int, len(other))
	}
	copy(c.Array, other)
	c.Size = len(other)
}

// Merge merges the sorted input container with the sorted other slice
// into output, preserving sort order. Every element of both inputs
// appears in the output; values present in both appear twice. Behaviour
// on unsorted input is undefined.
func Merge(input *IntArrayContainer, other []int, output *IntArrayContainer) {
	newSize := input.Size + len(other)
	output.Grow(newSize)

	i, j, k := 0, 0, 0
	for i < input.Size || j < len(other) {
		switch {
		case i == input.Size:
			output.Array[k] = other[j]
			j++
		case j == len(other):
			output.Array[k] = input.Array[i]
			i++
		case input.Array[i] < other[j]:
			output.Array[k] = input.Array[i]
			i++
		default:
			output.Array[k] = other[j]
			j++
		}
		k++
	}
	output.Size = k
}

// MergeAll merges a list of sorted int slices into a single sorted
// slice using the two supplied buffers as scratch space. The input
// slices must each be sorted with unique values.
func MergeAll(input [][]int, firstBuffer, secondBuffer *IntArrayContainer) []int {
	if len(input) == 0 {
		return []int{}
	}
	firstBuffer.Fill(input[0])
	for _, arr := range input[1:] {
		Merge(firstBuffer, arr, secondBuffer)
		firstBuffer, secondBuffer = secondBuffer, firstBuffer
	}
	return firstBuffer.Copy()
}

// RemoveOther copies input to output, excluding the values present in
// otherArray. Both inputs must be sorted; behaviour on unsorted input
// is undefined. Values in otherArray that do not occur in the input are
// skipped.
func RemoveOther(input *IntArrayContainer, otherArray []int, output *IntArrayContainer) {
	output.Grow(input.Size)

	i, j, k := 0, 0, 0
	for i < input.Size {
		switch {
		case j == len(otherArray) || input.Array[i] < otherArray[j]:
			output.Array[k] = input.Array[i]
			i++
			k++
		case input.Array[i] == otherArray[j]:
			i++
			j++
		default:
			j++
		}
	}
	output.Size = k
}
