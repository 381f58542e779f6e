package registry

// Built-in schema names.
const (
	JoinQuiz            = "join_quiz"
	JoinQuizInstruction = "join_quiz_instruction"
	ScoreEntry          = "score_entry"
	PayloadHeader       = "payload_header"
)

// Instruction tags of the quiz program.
const (
	InstructionInitialize uint8 = 0
	InstructionJoinQuiz   uint8 = 1
	InstructionDistribute uint8 = 2
)

// Builtins returns the layouts every registry starts with.
func Builtins() []Definition {
	return []Definition{
		{
			// Instruction data sent when a participant joins a quiz round.
			Name: JoinQuiz,
			Fields: []FieldDef{
				{Name: "bet", Type: "u64"},
				{Name: "fee", Type: "u64"},
			},
		},
		{
			Name: JoinQuizInstruction,
			Fields: []FieldDef{
				{Name: "instruction", Type: "u8"},
				{Name: "data", Type: "struct", Schema: JoinQuiz},
			},
		},
		{
			Name: ScoreEntry,
			Fields: []FieldDef{
				{Name: "player", Type: "bytes[32]"},
				{Name: "score", Type: "u64"},
			},
		},
		{
			// Frame header of the payload store.
			Name: PayloadHeader,
			Fields: []FieldDef{
				{Name: "crc", Type: "u32"},
				{Name: "size", Type: "u32"},
				{Name: "created_at", Type: "i64"},
			},
		},
	}
}
