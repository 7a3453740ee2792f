package fsm

const none = -1

// link threads a slot through one index list.
type link struct {
	prev, next int
}

func unlinked() link {
	return link{prev: none, next: none}
}

// indexList is an ordered doubly linked list of arena slots. The links live
// in the arena, so insertion and removal never allocate.
type indexList struct {
	head, tail int
	n          int
}

func newIndexList() indexList {
	return indexList{head: none, tail: none}
}

// links resolves the link a list uses for a slot.
type links func(slot int) *link

func (l *indexList) pushBack(slot int, at links) {
	lk := at(slot)
	lk.prev, lk.next = l.tail, none
	if l.tail == none {
		l.head = slot
	} else {
		at(l.tail).next = slot
	}
	l.tail = slot
	l.n++
}

func (l *indexList) remove(slot int, at links) {
	lk := at(slot)
	prev, next := lk.prev, lk.next
	if prev == none {
		l.head = next
	} else {
		at(prev).next = next
	}
	if next == none {
		l.tail = prev
	} else {
		at(next).prev = prev
	}
	*at(slot) = unlinked()
	l.n--
}

// each walks the list in order until fn returns false. fn may remove the
// slot it was handed.
func (l *indexList) each(at links, fn func(slot int) bool) {
	for s := l.head; s != none; {
		next := at(s).next
		if !fn(s) {
			return
		}
		s = next
	}
}
