package diagram

// WireItem is the takeoff row name for wire runs.
const WireItem = "Wire"

// Takeoff counts elements per type, in enumeration order, followed by a wire
// row. Label elements are annotations and are not counted. Types with no
// elements and an empty wire store produce no rows.
func Takeoff(elements []Element, wires []Wire) []TakeoffEntry {
	var counts [numElementTypes]int
	for _, el := range elements {
		if el.Type.Valid() {
			counts[el.Type]++
		}
	}

	entries := make([]TakeoffEntry, 0, numElementTypes)
	for _, t := range ElementTypes() {
		if t == Label || counts[t] == 0 {
			continue
		}
		entries = append(entries, TakeoffEntry{Item: t.ItemName(), Quantity: counts[t]})
	}
	if len(wires) > 0 {
		entries = append(entries, TakeoffEntry{Item: WireItem, Quantity: len(wires)})
	}
	return entries
}
