package rt

// External symbol names of the runtime. Lowered modules declare these and
// executors bind them.
const (
	SymCreate       = "eigen_create"
	SymUpdate       = "eigen_update"
	SymGetValue     = "eigen_get_value"
	SymGetGradient  = "eigen_get_gradient"
	SymGetStability = "eigen_get_stability"
	SymGetIteration = "eigen_get_iteration"
	SymGetIdentity  = "eigen_get_identity"

	SymCheckConverged   = "eigen_check_converged"
	SymCheckDiverging   = "eigen_check_diverging"
	SymCheckOscillating = "eigen_check_oscillating"
	SymCheckStable      = "eigen_check_stable"
	SymCheckImproving   = "eigen_check_improving"

	SymListCreate = "eigen_list_create"
	SymListGet    = "eigen_list_get"
	SymListSet    = "eigen_list_set"
	SymListLength = "eigen_list_length"

	SymPrint    = "eigen_print"
	SymPrintStr = "eigen_print_str"
)

// CheckSymbol returns the runtime symbol implementing the named predicate.
func CheckSymbol(predicate string) string {
	return "eigen_check_" + predicate
}

// Symbols lists every runtime symbol name.
var Symbols = []string{
	SymCreate, SymUpdate, SymGetValue, SymGetGradient, SymGetStability,
	SymGetIteration, SymGetIdentity,
	SymCheckConverged, SymCheckDiverging, SymCheckOscillating,
	SymCheckStable, SymCheckImproving,
	SymListCreate, SymListGet, SymListSet, SymListLength,
	SymPrint, SymPrintStr,
}

// IsSymbol reports whether name is a runtime symbol.
func IsSymbol(name string) bool {
	for _, s := range Symbols {
		if s == name {
			return true
		}
	}
	return false
}
