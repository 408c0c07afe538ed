package rt

// As* helpers narrow a Value to its container payload, returning
// errWrongType when the Value's Type tag does not match. The value
// operations and the VM's opcode handlers use these instead of touching
// Payload directly so a type mismatch always surfaces as the same
// sentinel error.

func AsArray(v Value) (*Array, error) {
	if v.Type != TArray {
		return nil, errWrongType
	}
	return asArray(v.E), nil
}

func AsBlob(v Value) (*Blob, error) {
	if v.Type != TBlob {
		return nil, errWrongType
	}
	return asBlob(v.E), nil
}

func AsString(v Value) (*Str, error) {
	if v.Type != TString {
		return nil, errWrongType
	}
	return asStr(v.E), nil
}

func AsTable(v Value) (*Table, error) {
	if v.Type != TTable {
		return nil, errWrongType
	}
	return asTable(v.E), nil
}

func AsObject(v Value) (*Object, error) {
	if v.Type != TObject {
		return nil, errWrongType
	}
	return asObject(v.E), nil
}

func AsOpaque(v Value) (*Opaque, error) {
	if v.Type != TOpaque {
		return nil, errWrongType
	}
	return asOpaque(v.E), nil
}

func AsFunction(v Value) (*Function, error) {
	if v.Type != TFunction {
		return nil, errWrongType
	}
	return asFunction(v.E), nil
}

func AsBoundFunction(v Value) (*BoundFunction, error) {
	if v.Type != TBoundFunction {
		return nil, errWrongType
	}
	return asBoundFunction(v.E), nil
}
