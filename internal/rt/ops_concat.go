package rt

// Concat implements the `..` operator: string-with-string concatenates
// bytes, array-with-array concatenates elements into a fresh array,
// everything else dispatches to __cat.
func Concat(w *World, v *View, lhs, rhs Value) (Value, error) {
	if lhs.Type == TString && rhs.Type == TString {
		a, b := asStr(lhs.E).Bytes(), asStr(rhs.E).Bytes()
		buf := make([]byte, 0, len(a)+len(b))
		buf = append(buf, a...)
		buf = append(buf, b...)
		return FromEntity(NewStringBytes(w, v, buf)), nil
	}
	if lhs.Type == TArray && rhs.Type == TArray {
		la, ra := asArray(lhs.E), asArray(rhs.E)
		out := make([]Value, 0, la.Len()+ra.Len())
		la.Each(func(_ int, val Value) bool { out = append(out, val); return true })
		ra.Each(func(_ int, val Value) bool { out = append(out, val); return true })
		for _, val := range out {
			w.IncrefValue(val)
		}
		return FromEntity(NewArray(w, v, out)), nil
	}
	if result, ok, err := callOverload2(w, v, HookCat, lhs, rhs); ok {
		return result, err
	}
	return Value{}, errWrongType
}
