// Package dispatch builds single-period economic dispatch problems and hands
// them to an external linear-programming backend.
//
// A Model is an explicit, immutable problem definition built once from
// generator and variable-resource characteristics, a demand forecast and an
// optional reserve requirement. Solving is a stateless transformation from
// that definition to a DispatchSolution. The only mutations allowed on a
// built model are the explicit update-and-re-solve operations SetDemand and
// SetReserveRequirement, which touch a single right-hand side each.
//
// Three formulations are supported:
//
//   - plain dispatch: g_i in [PMin_i, PMax_i], sum g + sum w = demand
//   - reserve co-optimization: adds r_i with g_i + r_i <= PMax_i and
//     sum r_i = requirement, reserve offers priced in the objective
//   - unit commitment: adds a binary u_i per unit with
//     PMin_i*u_i <= g_i <= PMax_i*u_i
//
// Shadow prices (energy and reserve) are read from the balance-row duals and
// are only reported for the purely continuous formulations. The
// unit-commitment variant is a mixed-integer program for which no duals are
// defined; the solution carries nil prices rather than a guessed value.
package dispatch
