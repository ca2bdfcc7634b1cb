// Package prompt assembles the instruction-wrapped prompt submitted to the model.
package prompt

import "strings"

// DefaultInstruction is the system instruction wrapped around every query.
const DefaultInstruction = "[INST] <<SYS>>Provide only a bash command for the user's query. Do not post instructions on how to use the command. Output only the command that best matches the user's query. Be as succinct as possible.<</SYS>>"

// ClosingMarker ends the instruction block after the query.
const ClosingMarker = " [/INST]"

// Assembler combines a fixed instruction, the query and a closing marker.
type Assembler struct {
	Instruction string
	Closing     string
}

// New returns an Assembler using instruction and ClosingMarker.
// An empty instruction selects DefaultInstruction.
func New(instruction string) Assembler {
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return Assembler{Instruction: instruction, Closing: ClosingMarker}
}

// Assemble returns Instruction + " " + query + Closing. The query is used verbatim.
func (a Assembler) Assemble(query string) string {
	var b strings.Builder
	b.Grow(len(a.Instruction) + 1 + len(query) + len(a.Closing))
	b.WriteString(a.Instruction)
	b.WriteByte(' ')
	b.WriteString(query)
	b.WriteString(a.Closing)
	return b.String()
}

// JoinQuery joins command-line words with single spaces.
func JoinQuery(words []string) string {
	return strings.Join(words, " ")
}
