// Package runtime contains the Runtime domain: JavaScript evaluation and
// remote object mirrors.
package runtime

import (
	"encoding/json"
	"fmt"
)

type ScriptID = string

type ExecutionContextID = int64

// RemoteObjectID references an object living in the page's JS heap.
type RemoteObjectID = string

type PropertyPreview struct {
	Name         string           `json:"name"`
	Type         string           `json:"type"`
	Value        string           `json:"value,omitempty"`
	ValuePreview *PropertyPreview `json:"valuePreview,omitempty"`
	Subtype      string           `json:"subtype,omitempty"`
}

type ObjectPreview struct {
	Type        string            `json:"type"`
	Subtype     string            `json:"subtype,omitempty"`
	Description string            `json:"description,omitempty"`
	Overflow    bool              `json:"overflow"`
	Properties  []PropertyPreview `json:"properties"`
}

// RemoteObject is a mirror of a JS value. Primitive values come back in
// Value; heap objects carry an ObjectID instead.
type RemoteObject struct {
	Type                string          `json:"type"`
	Subtype             string          `json:"subtype,omitempty"`
	ClassName           string          `json:"className,omitempty"`
	Description         string          `json:"description,omitempty"`
	Value               json.RawMessage `json:"value,omitempty"`
	UnserializableValue string          `json:"unserializableValue,omitempty"`
	ObjectID            RemoteObjectID  `json:"objectId,omitempty"`
	Preview             *ObjectPreview  `json:"preview,omitempty"`
}

// DecodeValue unmarshals the mirrored value into out. It fails when the
// object has no by-value representation (pass returnByValue on the call that
// produced it).
func (o *RemoteObject) DecodeValue(out any) error {
	if len(o.Value) == 0 {
		return fmt.Errorf("remote object of type %s has no value", o.Type)
	}
	return json.Unmarshal(o.Value, out)
}

// CallFrame is one stack entry for runtime errors and assertions.
type CallFrame struct {
	FunctionName string   `json:"functionName"`
	ScriptID     ScriptID `json:"scriptId"`
	URL          string   `json:"url"`
	LineNumber   int64    `json:"lineNumber"`
	ColumnNumber int64    `json:"columnNumber"`
}

type StackTrace struct {
	Description string      `json:"description,omitempty"`
	CallFrames  []CallFrame `json:"callFrames"`
	Parent      *StackTrace `json:"parent,omitempty"`
}

// ExceptionDetails describes an exception thrown during script compilation
// or execution.
type ExceptionDetails struct {
	ExceptionID        int64               `json:"exceptionId"`
	Text               string              `json:"text"`
	LineNumber         int64               `json:"lineNumber"`
	ColumnNumber       int64               `json:"columnNumber"`
	ScriptID           ScriptID            `json:"scriptId,omitempty"`
	URL                string              `json:"url,omitempty"`
	StackTrace         *StackTrace         `json:"stackTrace,omitempty"`
	Exception          *RemoteObject       `json:"exception,omitempty"`
	ExecutionContextID *ExecutionContextID `json:"executionContextId,omitempty"`
}

func (e *ExceptionDetails) Error() string {
	if e.Exception != nil && e.Exception.Description != "" {
		return e.Exception.Description
	}
	return e.Text
}

type Evaluate struct {
	Expression    string `json:"expression"`
	ReturnByValue bool   `json:"returnByValue,omitempty"`
	Silent        bool   `json:"silent,omitempty"`
	AwaitPromise  bool   `json:"awaitPromise,omitempty"`
}

func (Evaluate) MethodName() string { return "Runtime.evaluate" }

type EvaluateReply struct {
	Result           RemoteObject      `json:"result"`
	ExceptionDetails *ExceptionDetails `json:"exceptionDetails,omitempty"`
}

type CallFunctionOn struct {
	ObjectID            RemoteObjectID `json:"objectId"`
	FunctionDeclaration string         `json:"functionDeclaration"`
	ReturnByValue       bool           `json:"returnByValue,omitempty"`
	GeneratePreview     bool           `json:"generatePreview,omitempty"`
	Silent              bool           `json:"silent,omitempty"`
}

func (CallFunctionOn) MethodName() string { return "Runtime.callFunctionOn" }

type CallFunctionOnReply struct {
	Result           RemoteObject      `json:"result"`
	ExceptionDetails *ExceptionDetails `json:"exceptionDetails,omitempty"`
}

type CompileScript struct {
	Expression    string `json:"expression"`
	SourceURL     string `json:"sourceURL"`
	PersistScript bool   `json:"persistScript"`
}

func (CompileScript) MethodName() string { return "Runtime.compileScript" }

type CompileScriptReply struct {
	ScriptID         ScriptID          `json:"scriptId,omitempty"`
	ExceptionDetails *ExceptionDetails `json:"exceptionDetails,omitempty"`
}
