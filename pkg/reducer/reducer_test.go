package reducer_test

import (
	"context"
	"testing"

	"github.com/aretw0/statetree/pkg/domain"
	"github.com/aretw0/statetree/pkg/merge"
	"github.com/aretw0/statetree/pkg/reducer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = reducer.Schema{
	Slots: map[string]any{
		"list":       []any{},
		"keys":       []any{},
		"authConfig": []any{},
		"bootstrap":  map[string]any{},
		"detail":     map[string]any{},
	},
	Flags: map[string]any{
		"refresh":  false,
		"formData": map[string]any{},
	},
}

func newTestReducer(t *testing.T, opts ...reducer.Option) *reducer.Reducer {
	t.Helper()
	table := reducer.NewTable()
	table.On("FETCH_LIST").Begin("list").SetFlag("refresh", false)
	table.On("FETCH_LIST_RESPONSE").Commit("list")
	table.On("LIST_KEYS").Begin("keys")
	table.On("LIST_KEYS_RESPONSE").Commit("keys").Merge(merge.AppendDedup("idKey"))
	table.On("CREATE_REGION").BeginWith("bootstrap", map[string]any{"type": "region", "response": nil})
	table.On("CREATE_REGION_RESPONSE").Commit("bootstrap").Merge(merge.Tagged("region")).Tag("type", "region")
	table.On("INIT_SUCCESS").Succeed("bootstrap").Merge(merge.Tagged("initialize"))
	table.On("INIT_FAILURE").Fail("bootstrap").Tag("type", "initialize")
	table.On("RESET_ALL").Reset("list", "keys", "detail")
	table.On("DELETE_AUTH").Ignore()
	table.On("DELETE_AUTH_RESPONSE").RemoveWhere("authConfig", "provider")
	table.On("FETCH_AUTH_RESPONSE").Commit("authConfig")
	table.On("REQUEST_REFRESH").SetFlag("refresh", true)
	table.On("SET_FORM").FlagFromPayload("formData")

	r, err := reducer.New(testSchema, table, opts...)
	require.NoError(t, err)
	return r
}

func slotOf(t *testing.T, tree domain.Tree, key string) domain.Slot {
	t.Helper()
	s, ok := tree.Slot(key)
	require.True(t, ok)
	return s
}

func TestReducer_InitialTree(t *testing.T) {
	r := newTestReducer(t)
	tree := r.Initial()

	assert.Equal(t, []string{"authConfig", "bootstrap", "detail", "keys", "list"}, tree.SlotKeys())
	for _, key := range tree.SlotKeys() {
		assert.Equal(t, domain.StatusInit, slotOf(t, tree, key).Status)
	}
	flag, _ := tree.Flag("refresh")
	assert.Equal(t, false, flag)
}

func TestReducer_UnknownKindIsNoop(t *testing.T) {
	r := newTestReducer(t)
	tree := r.Reduce(r.Initial(), domain.NewAction("FETCH_LIST", nil))

	next := r.Reduce(tree, domain.NewAction("NOT_REAL", map[string]any{"x": 1}))

	assert.Equal(t, tree, next)
	assert.Equal(t, tree.Revision(), next.Revision())
}

func TestReducer_FetchCycle(t *testing.T) {
	r := newTestReducer(t)
	tree := r.Initial()

	tree = r.Reduce(tree, domain.NewAction("FETCH_LIST", nil))
	assert.Equal(t, domain.StatusLoading, slotOf(t, tree, "list").Status)

	tree = r.Reduce(tree, domain.Respond("FETCH_LIST_RESPONSE", 200, []any{"p1"}))
	assert.Equal(t, domain.StatusSuccess, slotOf(t, tree, "list").Status)
	assert.Equal(t, []any{"p1"}, slotOf(t, tree, "list").Data)

	t.Run("Refresh Keeps Stale Data", func(t *testing.T) {
		refreshing := r.Reduce(tree, domain.NewAction("FETCH_LIST", nil))
		assert.Equal(t, []any{"p1"}, slotOf(t, refreshing, "list").Data)
	})

	t.Run("Failure Keeps Data", func(t *testing.T) {
		failed := r.Reduce(tree, domain.NewAction("FETCH_LIST_RESPONSE", domain.Outcome{StatusCode: 500}))
		s := slotOf(t, failed, "list")
		assert.Equal(t, domain.StatusError, s.Status)
		assert.Equal(t, domain.GenericFailureMessage, s.Error.Message)
		assert.Equal(t, []any{"p1"}, s.Data)
	})

	t.Run("Loose JSON Payload", func(t *testing.T) {
		next := r.Reduce(tree, domain.NewAction("FETCH_LIST_RESPONSE", map[string]any{
			"status": 400.0,
			"data":   map[string]any{"error": "no access"},
		}))
		assert.Equal(t, "no access", slotOf(t, next, "list").Error.Message)
	})

	t.Run("Malformed Payload Is A Failure", func(t *testing.T) {
		next := r.Reduce(tree, domain.NewAction("FETCH_LIST_RESPONSE", "garbage"))
		s := slotOf(t, next, "list")
		assert.Equal(t, domain.StatusError, s.Status)
		assert.Equal(t, []any{"p1"}, s.Data)
	})
}

func TestReducer_AccumulatesKeys(t *testing.T) {
	r := newTestReducer(t)
	tree := r.Initial()

	key := func(code string) map[string]any {
		return map[string]any{"idKey": map[string]any{"keyCode": code}}
	}

	tree = r.Reduce(tree, domain.NewAction("LIST_KEYS", nil))
	tree = r.Reduce(tree, domain.Respond("LIST_KEYS_RESPONSE", 200, []any{key("a")}))
	tree = r.Reduce(tree, domain.NewAction("LIST_KEYS", nil))
	assert.Len(t, slotOf(t, tree, "keys").Data, 1, "begin keeps accumulated keys")

	// Responses for two providers complete out of order and one repeats.
	tree = r.Reduce(tree, domain.Respond("LIST_KEYS_RESPONSE", 200, []any{key("c"), key("a")}))
	tree = r.Reduce(tree, domain.Respond("LIST_KEYS_RESPONSE", 200, []any{key("b")}))

	assert.Equal(t, []any{key("a"), key("c"), key("b")}, slotOf(t, tree, "keys").Data)
}

func TestReducer_MultiStageBootstrap(t *testing.T) {
	r := newTestReducer(t)
	tree := r.Reduce(r.Initial(), domain.NewAction("CREATE_REGION", nil))

	s := slotOf(t, tree, "bootstrap")
	assert.Equal(t, map[string]any{"type": "region", "response": nil}, s.Data)

	ok := r.Reduce(tree, domain.Respond("CREATE_REGION_RESPONSE", 200, map[string]any{"uuid": "r1"}))
	assert.Equal(t, map[string]any{"type": "region", "response": map[string]any{"uuid": "r1"}}, slotOf(t, ok, "bootstrap").Data)

	failed := r.Reduce(tree, domain.NewAction("CREATE_REGION_RESPONSE", domain.Outcome{StatusCode: 500, Error: "zone missing"}))
	fs := slotOf(t, failed, "bootstrap")
	assert.Equal(t, "zone missing", fs.Error.Message)
	assert.Equal(t, "region", fs.Error.Tag("type"))

	t.Run("Succeed And Fail Signals", func(t *testing.T) {
		done := r.Reduce(tree, domain.NewAction("INIT_SUCCESS", domain.Outcome{StatusCode: 200, Data: "ok"}))
		assert.Equal(t, map[string]any{"type": "initialize", "response": "ok"}, slotOf(t, done, "bootstrap").Data)

		broken := r.Reduce(tree, domain.NewAction("INIT_FAILURE", domain.Outcome{StatusCode: 500, Data: map[string]any{"error": "ssh"}}))
		bs := slotOf(t, broken, "bootstrap")
		assert.Equal(t, domain.StatusError, bs.Status)
		assert.Equal(t, "ssh", bs.Error.Message)
		assert.Equal(t, "initialize", bs.Error.Tag("type"))

		raw := r.Reduce(tree, domain.NewAction("INIT_FAILURE", nil))
		assert.Equal(t, domain.GenericFailureMessage, slotOf(t, raw, "bootstrap").Error.Message)
	})
}

func TestReducer_ResetMultipleSlots(t *testing.T) {
	r := newTestReducer(t)
	tree := r.Initial()
	tree = r.Reduce(tree, domain.Respond("FETCH_LIST_RESPONSE", 200, []any{1}))
	tree = r.Reduce(tree, domain.Respond("LIST_KEYS_RESPONSE", 200, []any{map[string]any{"idKey": "k"}}))

	tree = r.Reduce(tree, domain.NewAction("RESET_ALL", nil))

	for _, key := range []string{"list", "keys", "detail"} {
		s := slotOf(t, tree, key)
		assert.Equal(t, domain.StatusInit, s.Status, key)
	}
	assert.Equal(t, []any{}, slotOf(t, tree, "list").Data)
}

func TestReducer_IgnoredBeginThenFilterRemove(t *testing.T) {
	r := newTestReducer(t)
	tree := r.Reduce(r.Initial(), domain.Respond("FETCH_AUTH_RESPONSE", 200, []any{
		map[string]any{"provider": "a"},
		map[string]any{"provider": "b"},
	}))

	ignored := r.Reduce(tree, domain.NewAction("DELETE_AUTH", "a"))
	assert.Equal(t, tree, ignored)

	removed := r.Reduce(ignored, domain.NewAction("DELETE_AUTH_RESPONSE", "a"))
	s := slotOf(t, removed, "authConfig")
	assert.Equal(t, []any{map[string]any{"provider": "b"}}, s.Data)
	assert.Equal(t, domain.StatusSuccess, s.Status)
}

func TestReducer_SucceedRuleRecordsFailedOutcome(t *testing.T) {
	r := newTestReducer(t)
	tree := r.Reduce(r.Initial(), domain.Respond("FETCH_AUTH_RESPONSE", 200, []any{
		map[string]any{"provider": "a"},
	}))

	failed := r.Reduce(tree, domain.NewAction("DELETE_AUTH_RESPONSE", domain.Outcome{StatusCode: 403, Error: "forbidden"}))
	s := slotOf(t, failed, "authConfig")
	assert.Equal(t, domain.StatusError, s.Status)
	require.NotNil(t, s.Error)
	assert.Equal(t, "forbidden", s.Error.Message)
	assert.Equal(t, []any{map[string]any{"provider": "a"}}, s.Data)

	loose := r.Reduce(tree, domain.NewAction("DELETE_AUTH_RESPONSE", map[string]any{"status": 500}))
	assert.Equal(t, domain.GenericFailureMessage, slotOf(t, loose, "authConfig").Error.Message)

	removed := r.Reduce(failed, domain.Respond("DELETE_AUTH_RESPONSE", 200, "a"))
	rs := slotOf(t, removed, "authConfig")
	assert.Equal(t, domain.StatusSuccess, rs.Status)
	assert.Nil(t, rs.Error)
	assert.Equal(t, []any{}, rs.Data)
}

func TestReducer_Flags(t *testing.T) {
	r := newTestReducer(t)
	tree := r.Reduce(r.Initial(), domain.NewAction("REQUEST_REFRESH", nil))
	flag, _ := tree.Flag("refresh")
	assert.Equal(t, true, flag)

	tree = r.Reduce(tree, domain.NewAction("FETCH_LIST", nil))
	flag, _ = tree.Flag("refresh")
	assert.Equal(t, false, flag)

	form := map[string]any{"provider": map[string]any{"name": "onprem"}}
	tree = r.Reduce(tree, domain.NewAction("SET_FORM", form))
	stored, _ := tree.Flag("formData")
	assert.Equal(t, form, stored)

	form["provider"].(map[string]any)["name"] = "mutated"
	stored, _ = tree.Flag("formData")
	assert.Equal(t, "onprem", stored.(map[string]any)["provider"].(map[string]any)["name"])
}

func TestReducer_Hooks(t *testing.T) {
	var transitions []*domain.TransitionEvent
	var ignored []*domain.IgnoredEvent
	hooks := domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) { transitions = append(transitions, e) },
		OnIgnored:    func(_ context.Context, e *domain.IgnoredEvent) { ignored = append(ignored, e) },
	}
	r := newTestReducer(t, reducer.WithLifecycleHooks(hooks), reducer.WithArea("test"))

	tree := r.Reduce(r.Initial(), domain.NewAction("FETCH_LIST", nil))
	_ = r.Reduce(tree, domain.NewAction("FETCH_LIST_RESPONSE", domain.Outcome{StatusCode: 503}))
	_ = r.Reduce(tree, domain.NewAction("NOPE", nil))
	_ = r.Reduce(tree, domain.NewAction("DELETE_AUTH", nil))
	_ = r.Reduce(tree, domain.NewAction("REQUEST_REFRESH", nil))

	require.Len(t, transitions, 2)
	assert.Equal(t, domain.StatusInit, transitions[0].From)
	assert.Equal(t, domain.StatusLoading, transitions[0].To)
	assert.Equal(t, "test", transitions[0].Area)
	assert.Equal(t, domain.StatusError, transitions[1].To)
	assert.NotNil(t, transitions[1].Failure)

	require.Len(t, ignored, 2)
	assert.Equal(t, domain.IgnoreUnknownKind, ignored[0].Reason)
	assert.Equal(t, domain.IgnoreByRule, ignored[1].Reason)
}

func TestNew_ValidatesTable(t *testing.T) {
	t.Run("Duplicate Kind", func(t *testing.T) {
		table := reducer.NewTable()
		table.On("A").Begin("list")
		table.On("A").Commit("list")
		_, err := reducer.New(testSchema, table)
		assert.ErrorIs(t, err, reducer.ErrDuplicateRule)
	})

	t.Run("Unknown Slot", func(t *testing.T) {
		table := reducer.NewTable()
		table.On("A").Begin("ghost")
		_, err := reducer.New(testSchema, table)
		assert.ErrorIs(t, err, reducer.ErrUnknownSlot)
	})

	t.Run("Unknown Reset Slot", func(t *testing.T) {
		table := reducer.NewTable()
		table.On("A").Reset("list", "ghost")
		_, err := reducer.New(testSchema, table)
		assert.ErrorIs(t, err, reducer.ErrUnknownSlot)
	})

	t.Run("Unknown Flag", func(t *testing.T) {
		table := reducer.NewTable()
		table.On("A").SetFlag("ghost", true)
		_, err := reducer.New(testSchema, table)
		assert.ErrorIs(t, err, reducer.ErrUnknownFlag)
	})

	t.Run("Incomplete Rule", func(t *testing.T) {
		table := reducer.NewTable()
		table.On("A")
		_, err := reducer.New(testSchema, table)
		assert.ErrorIs(t, err, reducer.ErrIncompleteRule)
	})
}

func TestReducer_RuleLookup(t *testing.T) {
	r := newTestReducer(t)

	rule, ok := r.Rule("SET_FORM")
	require.True(t, ok)
	assert.Equal(t, reducer.TransitionSetFlag, rule.Transition)
	assert.Equal(t, "set_flag", rule.Transition.String())

	_, ok = r.Rule("NOPE")
	assert.False(t, ok)
	assert.Equal(t, 14, r.Kinds())

	rules := r.Rules()
	require.Len(t, rules, 14)
	for i := 1; i < len(rules); i++ {
		assert.Less(t, rules[i-1].Kind, rules[i].Kind)
	}
}
