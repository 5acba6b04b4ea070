package encode

// Register-field encodings. reg8F intentionally includes the bogus 'F'
// entry so that encodeZ180 can reject it explicitly; see DESIGN.md.
var reg8 = map[string]byte{"A": 7, "B": 0, "C": 1, "D": 2, "E": 3, "H": 4, "L": 5}

var reg8X = map[string]byte{
	"A": 7, "B": 0, "C": 1, "D": 2, "E": 3, "H": 4, "L": 5, "(HL)": 6,
}

var reg8F = map[string]byte{
	"A": 7, "B": 0, "C": 1, "D": 2, "E": 3, "H": 4, "L": 5, "F": 6,
}

var reg16 = map[string]byte{"BC": 0x00, "DE": 0x10, "HL": 0x20, "SP": 0x30}
var reg16O = map[string]byte{"B": 0x00, "D": 0x10, "H": 0x20, "SP": 0x30}
var reg16P = map[string]byte{"BC": 0x00, "DE": 0x10, "HL": 0x20, "AF": 0x30}
var reg16Q = map[string]byte{"B": 0x00, "D": 0x10, "H": 0x20, "PSW": 0x30}

var regI = map[string]byte{"IX": 0xDD, "IY": 0xFD}

// cond includes the MA-only aliases HS (=NC), LO (=C), MI (=M).
var cond = map[string]byte{
	"NZ": 0x00, "Z": 0x08, "NC": 0x10, "C": 0x18,
	"PO": 0x20, "PE": 0x28, "P": 0x30, "M": 0x38,
	"HS": 0x10, "LO": 0x18, "MI": 0x38,
}

// op0 is the zero-operand instruction table. RETN is corrected to the
// intended 2-byte sequence $ED $45 (the source's b'\xED45' is a 3-byte
// Python literal, clearly a transcription slip for \xED\x45).
var op0 = map[string][]byte{
	"CCF":  {0x3F},
	"CPD":  {0xED, 0xA9},
	"CPDR": {0xED, 0xB9},
	"CPI":  {0xED, 0xA1},
	"CPIR": {0xED, 0xB1},
	"CPL":  {0x2F},
	"DAA":  {0x27},
	"DI":   {0xF3},
	"EI":   {0xFB},
	"EXX":  {0xD9},
	"HALT": {0x76},
	"IND":  {0xED, 0xAA},
	"INDR": {0xED, 0xBA},
	"INI":  {0xED, 0xA2},
	"INIR": {0xED, 0xB2},
	"LDD":  {0xED, 0xA8},
	"LDDR": {0xED, 0xB8},
	"LDI":  {0xED, 0xA0},
	"LDIR": {0xED, 0xB0},
	"NEG":  {0xED, 0x44},
	"NOP":  {0x00},
	"OUTD": {0xED, 0xAB},
	"OTDR": {0xED, 0xBB},
	"OUTI": {0xED, 0xA3},
	"OTIR": {0xED, 0xB3},
	"RETI": {0xED, 0x4D},
	"RETN": {0xED, 0x45},
	"RLA":  {0x17},
	"RLCA": {0x07},
	"RLD":  {0xED, 0x6F},
	"RRA":  {0x1F},
	"RRCA": {0x0F},
	"RRD":  {0xED, 0x67},
	"SCF":  {0x37},
}

// opA1 is the single-operand 8-bit ALU op base (A is implicit).
var opA1 = map[string]byte{
	"AND": 0xA0, "CP": 0xB8, "CMP": 0xB8, "OR": 0xB0, "SUB": 0x90, "XOR": 0xA8,
}

// opA2 is the two-operand 8-bit ALU op base (explicit A, src).
var opA2 = map[string]byte{"ADC": 0x88, "ADD": 0x80, "SBC": 0x98}

var opB2 = map[string]byte{"BIT": 0x40, "RES": 0x80, "SET": 0xC0}

// opC holds (no-condition opcode, conditional opcode base) pairs.
var opC = map[string][2]byte{
	"CALL": {0xCD, 0xC4},
	"JP":   {0xC3, 0xC2},
	"JR":   {0x18, 0x20},
}

// opD holds (8-bit, 16-bit) opcode bases for INC/DEC.
var opD = map[string][2]byte{
	"DEC": {0x05, 0x0B},
	"INC": {0x04, 0x03},
}

var opP = map[string]byte{"POP": 0xC1, "PUSH": 0xC5}

var opR = map[string]byte{
	"RL": 0x10, "RLC": 0x00, "RR": 0x18, "RRC": 0x08, "SLA": 0x20, "SRA": 0x28, "SRL": 0x38,
}

// op180 is the Z180-only zero/one-operand extension set.
var op180 = map[string]byte{
	"SLP": 0x76, "OTIM": 0x83, "OTIMR": 0x93, "OTDM": 0x8B, "OTDMR": 0x9B,
}

// regLA holds (read-opcode, write-opcode) pairs for LD A,(BC)/(DE) and
// LD A,I / LD A,R (and their reverse forms).
var regLA = map[string][2][]byte{
	"(BC)": {{0x0A}, {0x02}},
	"(DE)": {{0x1A}, {0x12}},
	"I":    {{0xED, 0x57}, {0xED, 0x47}},
	"R":    {{0xED, 0x5F}, {0xED, 0x4F}},
}

//
// 8080 mnemonic tables
//

// reg8M is the 8080 register-field encoding used by MOV/MVI/INR/DCR and
// the one-operand ADD-family ops: the same A..L assignment as reg8, plus
// M (memory via HL) in the slot Z80 syntax spells "(HL)".
var reg8M = map[string]byte{
	"A": 7, "B": 0, "C": 1, "D": 2, "E": 3, "H": 4, "L": 5, "M": 6,
}

var op8080A = map[string]byte{
	"ADD": 0x80, "ADC": 0x88, "SUB": 0x90, "SBB": 0x98,
	"ANA": 0xA0, "XRA": 0xA8, "ORA": 0xB0, "CMP": 0xB8,
}

var op8080X = map[string]byte{
	"ADI": 0xC6, "ACI": 0xCE, "SUI": 0xD6, "SBI": 0xDE,
	"ANI": 0xE6, "XRI": 0xEE, "ORI": 0xF6, "CPI": 0xFE,
	"IN": 0xDB, "OUT": 0xD3,
}

var op8080D = map[string]byte{"DAD": 0x09, "INX": 0x03, "DCX": 0x0B}

var op8080I = map[string]byte{"INR": 0x04, "DCR": 0x05}

var op8080Z = map[string]byte{
	"XTHL": 0xE3, "SPHL": 0xF9, "PCHL": 0xE9, "XCHG": 0xEB,
	"CMC": 0x3F, "STC": 0x37, "CMA": 0x2F, "DAA": 0x27,
	"HLT": 0x76, "NOP": 0x00, "DI": 0xF3, "EI": 0xFB,
	"RET": 0xC9, "RNZ": 0xC0, "RZ": 0xC8, "RNC": 0xD0, "RC": 0xD8,
	"RPO": 0xE0, "RPE": 0xE8, "RP": 0xF0, "RM": 0xF8,
	"RAL": 0x17, "RAR": 0x1F, "RLC": 0x07, "RRC": 0x0F,
}

var op8080C = map[string]byte{
	"CALL": 0xCD, "CNZ": 0xC4, "CZ": 0xCC, "CNC": 0xD4, "CC": 0xDC,
	"CPO": 0xE4, "CPE": 0xEC, "CP": 0xF4, "CM": 0xFC,
	"JMP": 0xC3, "JNZ": 0xC2, "JZ": 0xCA, "JNC": 0xD2, "JC": 0xDA,
	"JPO": 0xE2, "JPE": 0xEA, "JP": 0xF2, "JM": 0xFA,
	"SHLD": 0x22, "LHLD": 0x2A,
}
