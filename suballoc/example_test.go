package suballoc

import (
	"fmt"
)

func Example() {
	a, _ := New(1024)

	b1, _ := a.AllocWithAlign(1, 1)
	b2, _ := a.AllocWithAlign(8, 16)

	fmt.Printf("b1: offset=%d size=%d\n", b1.Offset, b1.Size)
	fmt.Printf("b2: offset=%d size=%d\n", b2.Offset, b2.Size)
	fmt.Printf("largest=%d total=%d\n", a.LargestAvailable(), a.TotalAvailable())

	a.Free(b1)
	a.Free(b2)
	fmt.Printf("after freeing both: total=%d\n", a.TotalAvailable())

	// Output:
	// b1: offset=0 size=1
	// b2: offset=16 size=8
	// largest=1000 total=1015
	// after freeing both: total=1024
}
