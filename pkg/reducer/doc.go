/*
Package reducer turns a declarative table of rules into a pure
(tree, action) -> tree function.

Each rule maps one action kind to a slot key and the transition to apply
there, optionally with a merge policy, a loading placeholder, failure tags
and scalar flags to set. Kinds without a rule are ignored: the input tree
is returned unchanged.

	table := reducer.NewTable()
	table.On("FETCH_LIST").Begin("list")
	table.On("FETCH_LIST_RESPONSE").Commit("list")
	table.On("LIST_KEYS_RESPONSE").Commit("keys").Merge(merge.AppendDedup("idKey"))

	r, err := reducer.New(schema, table)
	next := r.Reduce(tree, domain.NewAction("FETCH_LIST", nil))
*/
package reducer
