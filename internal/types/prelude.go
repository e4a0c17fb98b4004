package types

import (
	"fmt"
	"sync"

	"elmls/internal/syntax"
)

// The prelude is written in the language itself. Kernel values are
// annotations without a body; a union type whose only variant shares its
// name is a kernel type with hidden constructors.
var preludeSources = map[string]string{
	"Basics": `module Basics exposing (..)

type Int = Int
type Float = Float
type Bool = True | False
type Order = LT | EQ | GT
type Never = Never

add : number -> number -> number
sub : number -> number -> number
mul : number -> number -> number
fdiv : Float -> Float -> Float
idiv : Int -> Int -> Int
pow : number -> number -> number
negate : number -> number
abs : number -> number
clamp : number -> number -> number -> number
toFloat : Int -> Float
round : Float -> Int
floor : Float -> Int
ceiling : Float -> Int
truncate : Float -> Int
sqrt : Float -> Float
modBy : Int -> Int -> Int
remainderBy : Int -> Int -> Int
eq : a -> a -> Bool
neq : a -> a -> Bool
lt : comparable -> comparable -> Bool
gt : comparable -> comparable -> Bool
le : comparable -> comparable -> Bool
ge : comparable -> comparable -> Bool
max : comparable -> comparable -> comparable
min : comparable -> comparable -> comparable
compare : comparable -> comparable -> Order
and : Bool -> Bool -> Bool
or : Bool -> Bool -> Bool
xor : Bool -> Bool -> Bool
not : Bool -> Bool
append : appendable -> appendable -> appendable
apL : (a -> b) -> a -> b
apR : a -> (a -> b) -> b
composeL : (b -> c) -> (a -> b) -> a -> c
composeR : (a -> b) -> (b -> c) -> a -> c
identity : a -> a
always : a -> b -> a
never : Never -> a
`,
	"Maybe": `module Maybe exposing (..)

type Maybe a
    = Just a
    | Nothing

withDefault : a -> Maybe a -> a
map : (a -> b) -> Maybe a -> Maybe b
map2 : (a -> b -> value) -> Maybe a -> Maybe b -> Maybe value
andThen : (a -> Maybe b) -> Maybe a -> Maybe b
`,
	"List": `module List exposing (..)

import Maybe exposing (Maybe)

type List a = List a

singleton : a -> List a
repeat : Int -> a -> List a
range : Int -> Int -> List Int
cons : a -> List a -> List a
map : (a -> b) -> List a -> List b
indexedMap : (Int -> a -> b) -> List a -> List b
foldl : (a -> b -> b) -> b -> List a -> b
foldr : (a -> b -> b) -> b -> List a -> b
filter : (a -> Bool) -> List a -> List a
filterMap : (a -> Maybe b) -> List a -> List b
length : List a -> Int
reverse : List a -> List a
member : a -> List a -> Bool
all : (a -> Bool) -> List a -> Bool
any : (a -> Bool) -> List a -> Bool
maximum : List comparable -> Maybe comparable
minimum : List comparable -> Maybe comparable
sum : List number -> number
product : List number -> number
append : List a -> List a -> List a
concat : List (List a) -> List a
concatMap : (a -> List b) -> List a -> List b
isEmpty : List a -> Bool
head : List a -> Maybe a
tail : List a -> Maybe (List a)
take : Int -> List a -> List a
drop : Int -> List a -> List a
sort : List comparable -> List comparable
sortBy : (a -> comparable) -> List a -> List a
`,
	"Char": `module Char exposing (..)

type Char = Char

isUpper : Char -> Bool
isLower : Char -> Bool
isAlpha : Char -> Bool
isDigit : Char -> Bool
toUpper : Char -> Char
toLower : Char -> Char
toCode : Char -> Int
fromCode : Int -> Char
`,
	"String": `module String exposing (..)

import Char exposing (Char)
import List exposing (List)
import Maybe exposing (Maybe)

type String = String

isEmpty : String -> Bool
length : String -> Int
reverse : String -> String
repeat : Int -> String -> String
append : String -> String -> String
concat : List String -> String
join : String -> List String -> String
split : String -> String -> List String
words : String -> List String
lines : String -> List String
contains : String -> String -> Bool
startsWith : String -> String -> Bool
endsWith : String -> String -> Bool
left : Int -> String -> String
right : Int -> String -> String
toUpper : String -> String
toLower : String -> String
trim : String -> String
fromInt : Int -> String
toInt : String -> Maybe Int
fromFloat : Float -> String
toFloat : String -> Maybe Float
fromChar : Char -> String
cons : Char -> String -> String
uncons : String -> Maybe ( Char, String )
toList : String -> List Char
fromList : List Char -> String
`,
	"Tuple": `module Tuple exposing (..)

pair : a -> b -> ( a, b )
first : ( a, b ) -> a
second : ( a, b ) -> b
mapFirst : (a -> x) -> ( a, b ) -> ( x, b )
mapSecond : (b -> y) -> ( a, b ) -> ( a, y )
`,
	"Debug": `module Debug exposing (..)

import String exposing (String)

toString : a -> String
log : String -> a -> a
todo : String -> a
`,
}

// Dependency order for checking the prelude.
var preludeOrder = []string{"Basics", "Maybe", "List", "Char", "String", "Tuple", "Debug"}

// operatorFunctions maps infix operators to the prelude functions that
// implement them.
var operatorFunctions = map[string][2]string{
	"+":  {"Basics", "add"},
	"-":  {"Basics", "sub"},
	"*":  {"Basics", "mul"},
	"/":  {"Basics", "fdiv"},
	"//": {"Basics", "idiv"},
	"^":  {"Basics", "pow"},
	"==": {"Basics", "eq"},
	"/=": {"Basics", "neq"},
	"<":  {"Basics", "lt"},
	">":  {"Basics", "gt"},
	"<=": {"Basics", "le"},
	">=": {"Basics", "ge"},
	"&&": {"Basics", "and"},
	"||": {"Basics", "or"},
	"++": {"Basics", "append"},
	"<|": {"Basics", "apL"},
	"|>": {"Basics", "apR"},
	"<<": {"Basics", "composeL"},
	">>": {"Basics", "composeR"},
	"::": {"List", "cons"},
}

type prelude struct {
	ifaces map[string]*Interface
	trees  map[string]*syntax.Tree
}

var (
	preludeOnce sync.Once
	preludeData *prelude
)

func loadPrelude() *prelude {
	preludeOnce.Do(func() {
		p := &prelude{
			ifaces: map[string]*Interface{},
			trees:  map[string]*syntax.Tree{},
		}
		importer := ImporterFunc(func(module string) (*Interface, bool) {
			iface, ok := p.ifaces[module]
			return iface, ok
		})
		for _, name := range preludeOrder {
			tree := syntax.ParseText("elm-prelude:///"+name+".elm", preludeSources[name])
			if len(tree.Errors) > 0 {
				panic(fmt.Sprintf("prelude module %s: %s", name, tree.Errors[0].Msg))
			}
			p.trees[name] = tree
			p.ifaces[name] = Check(tree, importer).Interface()
		}
		preludeData = p
	})
	return preludeData
}

// Prelude resolves the built-in modules.
func Prelude() Importer {
	return ImporterFunc(func(module string) (*Interface, bool) {
		iface, ok := loadPrelude().ifaces[module]
		return iface, ok
	})
}

// IsPreludeModule reports whether module is one of the built-in modules.
func IsPreludeModule(module string) bool {
	_, ok := preludeSources[module]
	return ok
}

func (c *Checker) operatorType(op string) (Type, bool) {
	ref, ok := operatorFunctions[op]
	if !ok {
		return nil, false
	}
	var iface *Interface
	if ref[0] == c.module {
		if sc, ok := c.top[ref[1]]; ok {
			return c.instantiate(sc), true
		}
		return nil, false
	}
	iface, ok = c.importer.Import(ref[0])
	if !ok {
		return nil, false
	}
	sc, ok := iface.Values[ref[1]]
	if !ok {
		return nil, false
	}
	return c.instantiate(sc), true
}
