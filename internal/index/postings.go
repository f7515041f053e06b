package index

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// postingList is the set of interned document ids that produced one token.
// Set semantics guarantee a code is never counted twice for the same token.
type postingList struct {
	rb *roaring.Bitmap
}

func newPostingList() *postingList {
	return &postingList{rb: roaring.New()}
}

func (p *postingList) add(id uint32) {
	p.rb.Add(id)
}

// remove drops id and reports whether it was present.
func (p *postingList) remove(id uint32) bool {
	return p.rb.CheckedRemove(id)
}

func (p *postingList) isEmpty() bool {
	return p.rb.IsEmpty()
}

// each calls fn for every id in ascending order.
func (p *postingList) each(fn func(id uint32)) {
	it := p.rb.Iterator()
	for it.HasNext() {
		fn(it.Next())
	}
}
