package rt

// Overload hook names, looked up via Get on an object or opaque's
// prototype chain to dispatch arithmetic, comparison, indexing,
// iteration, and resource-acquisition operators to user code. Naming
// matches the table in spec.md §6, itself grounded on
// original_source/src/uvm.c's OPOVERLOAD(...) call sites and
// original_source/src/uobj.c's prototype-chain lookup. The `*2` hooks
// are the right-operand fallback consulted when the left operand's
// prototype has no matching unprimed hook.
const (
	HookAdd   = "__add"
	HookAdd2  = "__add2"
	HookSub   = "__sub"
	HookSub2  = "__sub2"
	HookMul   = "__mul"
	HookMul2  = "__mul2"
	HookDiv   = "__div"
	HookDiv2  = "__div2"
	HookIDiv  = "__idiv"
	HookIDiv2 = "__idiv2"
	HookMod   = "__mod"
	HookMod2  = "__mod2"
	HookBAnd  = "__band"
	HookBAnd2 = "__band2"
	HookBOr   = "__bor"
	HookBOr2  = "__bor2"
	HookBXor  = "__bxor"
	HookBXor2 = "__bxor2"
	HookShl   = "__shl"
	HookShl2  = "__shl2"
	HookShr   = "__shr"
	HookShr2  = "__shr2"
	HookCat   = "__cat"
	HookCat2  = "__cat2"
	HookEq    = "__eq"
	HookEq2   = "__eq2"
	HookCmp   = "__cmp"
	HookCmp2  = "__cmp2"

	HookUnPos = "__posit"
	HookUnNeg = "__negate"
	HookBNot  = "__invert"
	HookBool  = "__bool"
	HookInt   = "__int"
	HookFloat = "__float"
	HookStr   = "__string"
	HookQuote = "__quote"
	HookHash  = "__hash"
	HookIter  = "__iter"

	HookGetIdx = "__getindex"
	HookSetIdx = "__setindex"
	HookDelIdx = "__delindex"

	HookCall  = "__call"
	HookOpen  = "__open"
	HookClose = "__close"
	HookName  = "__name"

	// HookGetAttr/HookSetAttr/HookDelAttr are not part of spec.md §6's
	// hook table. GetAttr calls __getattr as a catch-all when the
	// own-table-then-prototype-chain walk finds nothing; SetAttr and
	// DeleteAttr do not consult __setattr or __delattr, which are
	// defined here as names only.
	HookGetAttr = "__getattr"
	HookSetAttr = "__setattr"
	HookDelAttr = "__delattr"
)
