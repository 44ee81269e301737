package model

// ObjFlag is a bit position in an object's flag set.
type ObjFlag uint8

const (
	FlagRead ObjFlag = iota
	FlagWrite
	FlagFertile
	FlagProgrammer
	FlagWizard
	FlagUser
)

// PropFlag is a bit position in a property's permission flag set.
type PropFlag uint8

const (
	PropRead PropFlag = iota
	PropWrite
	PropChown
)

// VerbFlag is a bit position in a verb's permission flag set.
type VerbFlag uint8

const (
	VerbRead VerbFlag = iota
	VerbWrite
	VerbExec
	VerbDebug
)

// BinaryType identifies the format of a verb's compiled binary. The core
// treats the binary as opaque bytes regardless of type; the (out-of-scope)
// compiler/VM interpret it.
type BinaryType uint8

const (
	BinaryTypeLambdaMOO BinaryType = iota
)
