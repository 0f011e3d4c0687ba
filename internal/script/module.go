package script

import (
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/immutext/internal/text"
)

// textTypeName is the registry name of the text userdata metatable.
const textTypeName = "immutext.text"

// registerTextModule installs the global text module and the metatable
// shared by every text value.
//
// Module functions:
//
//	text.new(s)        -> text
//	text.empty()       -> text
//	text.rep(t, n)     -> text
//	text.join(list, sep) -> text
//
// Text methods use 0-based character indexes:
//
//	t:len() t:at(i) t:slice(start, count) t:sub_from(start)
//	t:concat(o) t:insert(i, o) t:remove(start, count)
//	t:string() t:equal(o) t:hash() t:depth() t:leaves()
//
// Wherever a text argument is expected a Lua string is accepted too.
func registerTextModule(L *lua.LState) {
	mt := L.NewTypeMetatable(textTypeName)
	methods := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"len":      textLen,
		"at":       textAt,
		"slice":    textSlice,
		"sub_from": textSubFrom,
		"concat":   textConcat,
		"insert":   textInsert,
		"remove":   textRemove,
		"string":   textString,
		"equal":    textEqual,
		"hash":     textHash,
		"depth":    textDepth,
		"leaves":   textLeaves,
	})
	L.SetField(mt, "__index", methods)
	L.SetField(mt, "__tostring", L.NewFunction(textString))
	L.SetField(mt, "__len", L.NewFunction(textLen))
	L.SetField(mt, "__concat", L.NewFunction(textConcat))
	L.SetField(mt, "__eq", L.NewFunction(textEqual))

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"new":   textNew,
		"empty": textEmpty,
		"rep":   textRep,
		"join":  textJoin,
	})
	L.SetField(mod, "BLOCK_SIZE", lua.LNumber(text.BlockSize))
	L.SetGlobal("text", mod)
}

// newTextUserData wraps t in a userdata carrying the text metatable.
func newTextUserData(L *lua.LState, t text.Text) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = t
	L.SetMetatable(ud, L.GetTypeMetatable(textTypeName))
	return ud
}

func pushText(L *lua.LState, t text.Text) int {
	L.Push(newTextUserData(L, t))
	return 1
}

// toText converts a text userdata or a string to a text.
func toText(lv lua.LValue) (text.Text, bool) {
	switch v := lv.(type) {
	case *lua.LUserData:
		t, ok := v.Value.(text.Text)
		return t, ok
	case lua.LString:
		return text.FromString(string(v)), true
	case lua.LNumber:
		return text.FromString(v.String()), true
	}
	return text.Text{}, false
}

// checkText returns argument n as a text or raises an argument error.
func checkText(L *lua.LState, n int) text.Text {
	t, ok := toText(L.Get(n))
	if !ok {
		L.ArgError(n, "text or string expected, got "+L.Get(n).Type().String())
	}
	return t
}

// text.new(s) -> text
func textNew(L *lua.LState) int {
	return pushText(L, text.FromString(L.OptString(1, "")))
}

// text.empty() -> text
func textEmpty(L *lua.LState) int {
	return pushText(L, text.Empty())
}

// text.rep(t, n) -> text
// Repeats t n times, sharing structure between the copies.
func textRep(L *lua.LState) int {
	t := checkText(L, 1)
	n := L.CheckInt(2)
	if n < 0 {
		L.ArgError(2, "count must not be negative")
	}
	if n > 0 && t.Len() > math.MaxInt/n {
		L.ArgError(2, "result too large")
	}
	return pushText(L, text.Repeat(t, n))
}

// text.join(list, sep) -> text
func textJoin(L *lua.LState) int {
	list := L.CheckTable(1)
	sep := text.Empty()
	if L.GetTop() >= 2 {
		sep = checkText(L, 2)
	}

	var parts []text.Text
	for i := 1; i <= list.Len(); i++ {
		t, ok := toText(list.RawGetInt(i))
		if !ok {
			L.ArgError(1, "list must hold texts or strings")
		}
		parts = append(parts, t)
	}
	return pushText(L, text.Join(parts, sep))
}

// t:len() -> number
func textLen(L *lua.LState) int {
	L.Push(lua.LNumber(checkText(L, 1).Len()))
	return 1
}

// t:at(i) -> string
// Returns the character at i as a one-character string.
func textAt(L *lua.LState) int {
	t := checkText(L, 1)
	ch, err := t.At(L.CheckInt(2))
	if err != nil {
		L.RaiseError("at: %v", err)
		return 0
	}
	L.Push(lua.LString(string(ch)))
	return 1
}

// t:slice(start, count) -> text
func textSlice(L *lua.LState) int {
	t := checkText(L, 1)
	sub, err := t.Slice(L.CheckInt(2), L.CheckInt(3))
	if err != nil {
		L.RaiseError("slice: %v", err)
		return 0
	}
	return pushText(L, sub)
}

// t:sub_from(start) -> text
func textSubFrom(L *lua.LState) int {
	t := checkText(L, 1)
	sub, err := t.SubTextFrom(L.CheckInt(2))
	if err != nil {
		L.RaiseError("sub_from: %v", err)
		return 0
	}
	return pushText(L, sub)
}

// t:concat(o) -> text, also the .. operator.
func textConcat(L *lua.LState) int {
	return pushText(L, checkText(L, 1).Concat(checkText(L, 2)))
}

// t:insert(i, o) -> text
func textInsert(L *lua.LState) int {
	t := checkText(L, 1)
	index := L.CheckInt(2)
	result, err := t.Insert(index, checkText(L, 3))
	if err != nil {
		L.RaiseError("insert: %v", err)
		return 0
	}
	return pushText(L, result)
}

// t:remove(start, count) -> text
func textRemove(L *lua.LState) int {
	t := checkText(L, 1)
	result, err := t.Remove(L.CheckInt(2), L.CheckInt(3))
	if err != nil {
		L.RaiseError("remove: %v", err)
		return 0
	}
	return pushText(L, result)
}

// t:string() -> string, also tostring(t).
func textString(L *lua.LState) int {
	L.Push(lua.LString(checkText(L, 1).String()))
	return 1
}

// t:equal(o) -> boolean, also the == operator.
func textEqual(L *lua.LState) int {
	L.Push(lua.LBool(checkText(L, 1).Equal(checkText(L, 2))))
	return 1
}

// t:hash() -> number
func textHash(L *lua.LState) int {
	L.Push(lua.LNumber(checkText(L, 1).Hash()))
	return 1
}

// t:depth() -> number
func textDepth(L *lua.LState) int {
	L.Push(lua.LNumber(checkText(L, 1).Depth()))
	return 1
}

// t:leaves() -> iterator
//
//	for offset, chunk in t:leaves() do ... end
func textLeaves(L *lua.LState) int {
	it := checkText(L, 1).Leaves()
	L.Push(L.NewFunction(func(L *lua.LState) int {
		if !it.Next() {
			return 0
		}
		L.Push(lua.LNumber(it.Offset()))
		L.Push(lua.LString(it.String()))
		return 2
	}))
	return 1
}
