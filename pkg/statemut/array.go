package statemut

// AddItemToStateArray appends item to a copy of state and passes the copy to
// set. It fails when state already holds item. A nil state is an empty
// array.
func AddItemToStateArray[S ~[]E, E comparable](state S, set Setter[S], item E, opts ...Option) (S, error) {
	return addItem(newOptions(opts), "AddItemToStateArray", state, set, item, equal[E])
}

// AddItemToStateArrayFunc is like AddItemToStateArray but compares items with eq.
func AddItemToStateArrayFunc[S ~[]E, E any](state S, set Setter[S], item E, eq func(a, b E) bool, opts ...Option) (S, error) {
	return addItem(newOptions(opts), "AddItemToStateArrayFunc", state, set, item, eq)
}

// DeleteItemFromStateArray removes item from a copy of state and passes the
// copy to set. Only the first occurrence is removed unless removeAll is true.
// It fails when state does not hold item.
func DeleteItemFromStateArray[S ~[]E, E comparable](state S, set Setter[S], item E, removeAll bool, opts ...Option) (S, error) {
	return deleteItem(newOptions(opts), "DeleteItemFromStateArray", state, set, item, removeAll, equal[E])
}

// DeleteItemFromStateArrayFunc is like DeleteItemFromStateArray but compares
// items with eq.
func DeleteItemFromStateArrayFunc[S ~[]E, E any](
	state S,
	set Setter[S],
	item E,
	removeAll bool,
	eq func(a, b E) bool,
	opts ...Option,
) (S, error) {
	return deleteItem(newOptions(opts), "DeleteItemFromStateArrayFunc", state, set, item, removeAll, eq)
}

// DeleteItemFromStateArrayByID passes set a copy of state without the records
// whose identifier field equals id. Records without a string identifier are
// kept. set is called even when nothing matched.
func DeleteItemFromStateArrayByID[S ~[]E, E any](state S, set Setter[S], id any, opts ...Option) S {
	o := newOptions(opts)
	target := NormalizeID(id)

	next := make(S, 0, len(state))
	for _, record := range state {
		if rid, ok := recordID(record, o.idField); ok && rid == target {
			continue
		}
		next = append(next, record)
	}

	return commit(set, next)
}

func addItem[S ~[]E, E any](o *options, op string, state S, set Setter[S], item E, eq func(a, b E) bool) (S, error) {
	if err := checkExcludes[E](o, op, state, item, eq); err != nil {
		return nil, err
	}

	next := make(S, len(state), len(state)+1)
	copy(next, state)
	next = append(next, item)

	return commit(set, next), nil
}

func deleteItem[S ~[]E, E any](
	o *options,
	op string,
	state S,
	set Setter[S],
	item E,
	removeAll bool,
	eq func(a, b E) bool,
) (S, error) {
	if err := checkContains[E](o, op, state, item, eq); err != nil {
		return nil, err
	}

	next := make(S, 0, len(state))
	removed := false
	for _, v := range state {
		if (removeAll || !removed) && eq(v, item) {
			removed = true
			continue
		}
		next = append(next, v)
	}

	return commit(set, next), nil
}
