package classmodel

// VTable holds the virtual method dispatch table for a class, indexed by
// slot number. Slots are assigned at class-linking time: an overriding
// method reuses its superclass's slot for the same signature, and a new
// virtual method is appended. This mirrors vm/vtable.go's Lookup/AddMethod
// pattern, generalized from selector-ID indexing to JVM vtable-slot
// indexing (JVM §5.4.3.3 resolution produces exactly this kind of slot
// number).
type VTable struct {
	class   *ClassObject
	parent  *VTable
	methods []*MethodRef
}

// NewVTable creates a vtable for class, inheriting parent's slots.
func NewVTable(class *ClassObject, parent *VTable) *VTable {
	vt := &VTable{class: class, parent: parent}
	if parent != nil {
		vt.methods = append(vt.methods, parent.methods...)
	}
	return vt
}

// Slot returns the method occupying slot, or nil if slot is out of range.
func (vt *VTable) Slot(slot int) *MethodRef {
	if slot < 0 || slot >= len(vt.methods) {
		return nil
	}
	return vt.methods[slot]
}

// SlotCount reports the number of slots in the table.
func (vt *VTable) SlotCount() int { return len(vt.methods) }

// Assign places method at slot, growing the table if necessary. Used
// when linking a class: either to reuse an inherited slot (overriding a
// superclass method) or to append a brand-new virtual method.
func (vt *VTable) Assign(slot int, method *MethodRef) {
	if slot >= len(vt.methods) {
		grown := make([]*MethodRef, slot+1)
		copy(grown, vt.methods)
		vt.methods = grown
	}
	vt.methods[slot] = method
	method.VTableSlot = slot
}

// Append adds method as a new slot and returns the assigned slot index.
func (vt *VTable) Append(method *MethodRef) int {
	slot := len(vt.methods)
	vt.Assign(slot, method)
	return slot
}

// ITable holds a class's dispatch table for one implemented interface.
// interfaceId identifies which interface this table is for (assigned by
// the class loader); slots are indexed per that interface's own method
// ordering, independent of the implementing class's vtable slot numbers,
// matching the upstream ITableOffset{interfaceId, slot} pair.
type ITable struct {
	InterfaceID int
	methods     []*MethodRef
}

// NewITable creates an interface table with room for n method slots.
func NewITable(interfaceID, n int) *ITable {
	return &ITable{InterfaceID: interfaceID, methods: make([]*MethodRef, n)}
}

// Slot returns the method occupying slot, or nil if out of range.
func (it *ITable) Slot(slot int) *MethodRef {
	if slot < 0 || slot >= len(it.methods) {
		return nil
	}
	return it.methods[slot]
}

// Assign places method at slot.
func (it *ITable) Assign(slot int, method *MethodRef) {
	if slot >= len(it.methods) {
		grown := make([]*MethodRef, slot+1)
		copy(grown, it.methods)
		it.methods = grown
	}
	it.methods[slot] = method
}
