package wasm

import (
	"bytes"
	"fmt"
	"io"
)

// DecodeModule parses a WebAssembly binary into a *Module. It does not
// validate the module; call ValidateModule afterwards.
func DecodeModule(data []byte) (*Module, error) {
	r := bytes.NewReader(data)

	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("wasm: read header: %w", err)
	}
	magic := leU32(header[0:4])
	version := leU32(header[4:8])
	if magic != Magic {
		return nil, fmt.Errorf("wasm: bad magic %x", magic)
	}
	if version != Version {
		return nil, fmt.Errorf("wasm: unsupported version %d", version)
	}

	m := &Module{}
	var lastSection byte
	for r.Len() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("wasm: read section id: %w", err)
		}
		size, err := readVaruint32(r)
		if err != nil {
			return nil, fmt.Errorf("wasm: read section size: %w", err)
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("wasm: read section %d body: %w", id, err)
		}
		if id != SecCustom {
			if id <= lastSection {
				return nil, fmt.Errorf("wasm: section %d out of order", id)
			}
			lastSection = id
		}

		sr := bytes.NewReader(body)
		if err := decodeSection(m, id, sr); err != nil {
			return nil, fmt.Errorf("wasm: section %d: %w", id, err)
		}
	}
	return m, nil
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func decodeSection(m *Module, id byte, r *bytes.Reader) error {
	switch id {
	case SecCustom:
		return nil // skipped: name/content not needed by the translator
	case SecType:
		return decodeTypeSection(m, r)
	case SecImport:
		return decodeImportSection(m, r)
	case SecFunction:
		return decodeFunctionSection(m, r)
	case SecTable:
		return decodeTableSection(m, r)
	case SecMemory:
		return decodeMemorySection(m, r)
	case SecGlobal:
		return decodeGlobalSection(m, r)
	case SecExport:
		return decodeExportSection(m, r)
	case SecStart:
		idx, err := readVaruint32(r)
		if err != nil {
			return err
		}
		m.Start = &idx
		return nil
	case SecElement:
		return decodeElementSection(m, r)
	case SecCode:
		return decodeCodeSection(m, r)
	case SecData:
		return decodeDataSection(m, r)
	case SecDataCount:
		n, err := readVaruint32(r)
		if err != nil {
			return err
		}
		m.DataCount = &n
		return nil
	default:
		return fmt.Errorf("unknown section id %d", id)
	}
}

func readValType(r io.ByteReader) (ValType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch ValType(b) {
	case ValI32, ValI64, ValF32, ValF64, ValV128, ValFuncRef, ValExtern:
		return ValType(b), nil
	default:
		return 0, fmt.Errorf("invalid value type 0x%x", b)
	}
}

func readLimits(r io.ByteReader) (Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	min, err := readVaruint64(r)
	if err != nil {
		return Limits{}, err
	}
	l := Limits{Min: min}
	if flags&0x01 != 0 {
		max, err := readVaruint64(r)
		if err != nil {
			return Limits{}, err
		}
		l.Max = max
		l.HasMax = true
	}
	return l, nil
}

func readTableType(r io.ByteReader) (TableType, error) {
	et, err := readValType(r)
	if err != nil {
		return TableType{}, err
	}
	if !et.IsRef() {
		return TableType{}, fmt.Errorf("table element type must be a reference type, got %s", et)
	}
	lim, err := readLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: et, Limits: lim}, nil
}

func readGlobalType(r io.ByteReader) (GlobalType, error) {
	vt, err := readValType(r)
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	return GlobalType{ValType: vt, Mutable: mut == 1}, nil
}

func decodeTypeSection(m *Module, r *bytes.Reader) error {
	n, err := readVaruint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		tag, err := r.ReadByte()
		if err != nil {
			return err
		}
		if tag != 0x60 {
			return fmt.Errorf("expected func type tag 0x60, got 0x%x", tag)
		}
		np, err := readVaruint32(r)
		if err != nil {
			return err
		}
		params := make([]ValType, np)
		for j := range params {
			if params[j], err = readValType(r); err != nil {
				return err
			}
		}
		nr, err := readVaruint32(r)
		if err != nil {
			return err
		}
		results := make([]ValType, nr)
		for j := range results {
			if results[j], err = readValType(r); err != nil {
				return err
			}
		}
		m.Types = append(m.Types, FuncType{Params: params, Results: results})
	}
	return nil
}

func readName(r *bytes.Reader) (string, error) {
	n, err := readVaruint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func decodeImportSection(m *Module, r *bytes.Reader) error {
	n, err := readVaruint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		mod, err := readName(r)
		if err != nil {
			return err
		}
		name, err := readName(r)
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		desc := ImportDesc{Kind: kind}
		switch kind {
		case KindFunc:
			desc.FuncType, err = readVaruint32(r)
		case KindTable:
			desc.Table, err = readTableType(r)
		case KindMemory:
			desc.Memory.Limits, err = readLimits(r)
		case KindGlobal:
			desc.Global, err = readGlobalType(r)
		default:
			return fmt.Errorf("unknown import kind %d", kind)
		}
		if err != nil {
			return err
		}
		m.Imports = append(m.Imports, Import{Module: mod, Name: name, Desc: desc})
	}
	return nil
}

func decodeFunctionSection(m *Module, r *bytes.Reader) error {
	n, err := readVaruint32(r)
	if err != nil {
		return err
	}
	m.Functions = make([]uint32, n)
	for i := range m.Functions {
		if m.Functions[i], err = readVaruint32(r); err != nil {
			return err
		}
	}
	return nil
}

func decodeTableSection(m *Module, r *bytes.Reader) error {
	n, err := readVaruint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		tt, err := readTableType(r)
		if err != nil {
			return err
		}
		m.Tables = append(m.Tables, tt)
	}
	return nil
}

func decodeMemorySection(m *Module, r *bytes.Reader) error {
	n, err := readVaruint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		lim, err := readLimits(r)
		if err != nil {
			return err
		}
		m.Memories = append(m.Memories, MemoryType{Limits: lim})
	}
	return nil
}

func decodeGlobalSection(m *Module, r *bytes.Reader) error {
	n, err := readVaruint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		gt, err := readGlobalType(r)
		if err != nil {
			return err
		}
		init, err := decodeConstExpr(r)
		if err != nil {
			return err
		}
		m.Globals = append(m.Globals, Global{Type: gt, Init: init})
	}
	return nil
}

func decodeExportSection(m *Module, r *bytes.Reader) error {
	n, err := readVaruint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		name, err := readName(r)
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		idx, err := readVaruint32(r)
		if err != nil {
			return err
		}
		m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Idx: idx})
	}
	return nil
}

func decodeElementSection(m *Module, r *bytes.Reader) error {
	n, err := readVaruint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		flags, err := readVaruint32(r)
		if err != nil {
			return err
		}
		el := Element{RefType: ValFuncRef}
		switch flags {
		case 0: // active, table 0, func-index vector
			el.Mode = ElementActive
			if el.Offset, err = decodeConstExpr(r); err != nil {
				return err
			}
			if el.Funcs, err = readFuncIdxVec(r); err != nil {
				return err
			}
		case 1: // passive, func-index vector with elemkind byte
			el.Mode = ElementPassive
			if _, err = r.ReadByte(); err != nil { // elemkind, always 0x00 (funcref)
				return err
			}
			if el.Funcs, err = readFuncIdxVec(r); err != nil {
				return err
			}
		case 2: // active, explicit table index, func-index vector
			el.Mode = ElementActive
			if el.TableIdx, err = readVaruint32(r); err != nil {
				return err
			}
			if el.Offset, err = decodeConstExpr(r); err != nil {
				return err
			}
			if _, err = r.ReadByte(); err != nil {
				return err
			}
			if el.Funcs, err = readFuncIdxVec(r); err != nil {
				return err
			}
		case 3: // declared, func-index vector with elemkind byte
			el.Mode = ElementDeclared
			if _, err = r.ReadByte(); err != nil {
				return err
			}
			if el.Funcs, err = readFuncIdxVec(r); err != nil {
				return err
			}
		case 4: // active, table 0, expression vector
			el.Mode = ElementActive
			if el.Offset, err = decodeConstExpr(r); err != nil {
				return err
			}
			if el.Exprs, err = readExprVec(r); err != nil {
				return err
			}
		case 5: // passive, expression vector with reftype
			el.Mode = ElementPassive
			if el.RefType, err = readValType(r); err != nil {
				return err
			}
			if el.Exprs, err = readExprVec(r); err != nil {
				return err
			}
		case 6: // active, explicit table index, expression vector
			el.Mode = ElementActive
			if el.TableIdx, err = readVaruint32(r); err != nil {
				return err
			}
			if el.Offset, err = decodeConstExpr(r); err != nil {
				return err
			}
			if el.RefType, err = readValType(r); err != nil {
				return err
			}
			if el.Exprs, err = readExprVec(r); err != nil {
				return err
			}
		case 7: // declared, expression vector with reftype
			el.Mode = ElementDeclared
			if el.RefType, err = readValType(r); err != nil {
				return err
			}
			if el.Exprs, err = readExprVec(r); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown element segment flags %d", flags)
		}
		m.Elements = append(m.Elements, el)
	}
	return nil
}

func readFuncIdxVec(r *bytes.Reader) ([]uint32, error) {
	n, err := readVaruint32(r)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		if out[i], err = readVaruint32(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readExprVec(r *bytes.Reader) ([][]Instruction, error) {
	n, err := readVaruint32(r)
	if err != nil {
		return nil, err
	}
	out := make([][]Instruction, n)
	for i := range out {
		if out[i], err = decodeConstExpr(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeCodeSection(m *Module, r *bytes.Reader) error {
	n, err := readVaruint32(r)
	if err != nil {
		return err
	}
	m.Code = make([]FuncBody, n)
	for i := uint32(0); i < n; i++ {
		size, err := readVaruint32(r)
		if err != nil {
			return err
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return err
		}
		fb, err := decodeFuncBody(body)
		if err != nil {
			return fmt.Errorf("func %d: %w", i, err)
		}
		m.Code[i] = *fb
	}
	return nil
}

func decodeFuncBody(body []byte) (*FuncBody, error) {
	r := bytes.NewReader(body)
	nGroups, err := readVaruint32(r)
	if err != nil {
		return nil, err
	}
	fb := &FuncBody{}
	for i := uint32(0); i < nGroups; i++ {
		count, err := readVaruint32(r)
		if err != nil {
			return nil, err
		}
		vt, err := readValType(r)
		if err != nil {
			return nil, err
		}
		fb.Locals = append(fb.Locals, LocalEntry{Count: count, ValType: vt})
	}
	rest := make([]byte, r.Len())
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, err
	}
	instrs, err := DecodeInstructions(rest)
	if err != nil {
		return nil, err
	}
	fb.Instrs = instrs
	return fb, nil
}

func decodeDataSection(m *Module, r *bytes.Reader) error {
	n, err := readVaruint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		flags, err := readVaruint32(r)
		if err != nil {
			return err
		}
		d := Data{}
		switch flags {
		case 0:
			d.Mode = DataActive
			if d.Offset, err = decodeConstExpr(r); err != nil {
				return err
			}
		case 1:
			d.Mode = DataPassive
		case 2:
			d.Mode = DataActive
			if d.MemIdx, err = readVaruint32(r); err != nil {
				return err
			}
			if d.Offset, err = decodeConstExpr(r); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown data segment flags %d", flags)
		}
		size, err := readVaruint32(r)
		if err != nil {
			return err
		}
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		d.Bytes = buf
		m.Data = append(m.Data, d)
	}
	return nil
}

// decodeConstExpr decodes a constant init expression, terminated by `end`.
func decodeConstExpr(r *bytes.Reader) ([]Instruction, error) {
	var out []Instruction
	for {
		instr, err := decodeOneInstruction(r)
		if err != nil {
			return nil, err
		}
		if instr.Opcode == OpEnd {
			return out, nil
		}
		out = append(out, instr)
	}
}

// DecodeInstructions decodes a flat function-body instruction stream
// (everything after the locals declaration, including the trailing `end`).
func DecodeInstructions(code []byte) ([]Instruction, error) {
	r := bytes.NewReader(code)
	var out []Instruction
	for r.Len() > 0 {
		instr, err := decodeOneInstruction(r)
		if err != nil {
			return nil, err
		}
		out = append(out, instr)
	}
	return out, nil
}

func decodeOneInstruction(r *bytes.Reader) (Instruction, error) {
	op, err := r.ReadByte()
	if err != nil {
		return Instruction{}, err
	}
	switch op {
	case OpUnreachable, OpNop, OpElse, OpEnd, OpReturn, OpDrop,
		OpSelect, OpI32Eqz, OpI32Eq, OpI32Ne, OpI32LtS, OpI32LtU, OpI32GtS, OpI32GtU,
		OpI32LeS, OpI32LeU, OpI32GeS, OpI32GeU,
		OpI64Eqz, OpI64Eq, OpI64Ne, OpI64LtS, OpI64LtU, OpI64GtS, OpI64GtU,
		OpI64LeS, OpI64LeU, OpI64GeS, OpI64GeU,
		OpF32Eq, OpF32Ne, OpF32Lt, OpF32Gt, OpF32Le, OpF32Ge,
		OpF64Eq, OpF64Ne, OpF64Lt, OpF64Gt, OpF64Le, OpF64Ge,
		OpI32Clz, OpI32Ctz, OpI32Popcnt, OpI32Add, OpI32Sub, OpI32Mul,
		OpI32DivS, OpI32DivU, OpI32RemS, OpI32RemU, OpI32And, OpI32Or, OpI32Xor,
		OpI32Shl, OpI32ShrS, OpI32ShrU, OpI32Rotl, OpI32Rotr,
		OpI64Clz, OpI64Ctz, OpI64Popcnt, OpI64Add, OpI64Sub, OpI64Mul,
		OpI64DivS, OpI64DivU, OpI64RemS, OpI64RemU, OpI64And, OpI64Or, OpI64Xor,
		OpI64Shl, OpI64ShrS, OpI64ShrU, OpI64Rotl, OpI64Rotr,
		OpF32Abs, OpF32Neg, OpF32Ceil, OpF32Floor, OpF32Trunc, OpF32Nearest, OpF32Sqrt,
		OpF32Add, OpF32Sub, OpF32Mul, OpF32Div, OpF32Min, OpF32Max, OpF32Copysign,
		OpF64Abs, OpF64Neg, OpF64Ceil, OpF64Floor, OpF64Trunc, OpF64Nearest, OpF64Sqrt,
		OpF64Add, OpF64Sub, OpF64Mul, OpF64Div, OpF64Min, OpF64Max, OpF64Copysign,
		OpI32WrapI64, OpI32TruncF32S, OpI32TruncF32U, OpI32TruncF64S, OpI32TruncF64U,
		OpI64ExtendI32S, OpI64ExtendI32U, OpI64TruncF32S, OpI64TruncF32U, OpI64TruncF64S, OpI64TruncF64U,
		OpF32ConvertI32S, OpF32ConvertI32U, OpF32ConvertI64S, OpF32ConvertI64U, OpF32DemoteF64,
		OpF64ConvertI32S, OpF64ConvertI32U, OpF64ConvertI64S, OpF64ConvertI64U, OpF64PromoteF32,
		OpI32ReinterpretF32, OpI64ReinterpretF64, OpF32ReinterpretI32, OpF64ReinterpretI64,
		OpI32Extend8S, OpI32Extend16S, OpI64Extend8S, OpI64Extend16S, OpI64Extend32S,
		OpRefIsNull:
		return Instruction{Opcode: op}, nil

	case OpBlock, OpLoop, OpIf:
		bt, err := readBlockType(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: BlockImm{Type: bt}}, nil

	case OpBr, OpBrIf:
		idx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: BranchImm{LabelIdx: idx}}, nil

	case OpBrTable:
		n, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		labels := make([]uint32, n)
		for i := range labels {
			if labels[i], err = readVaruint32(r); err != nil {
				return Instruction{}, err
			}
		}
		def, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: BrTableImm{Labels: labels, Default: def}}, nil

	case OpCall, OpReturnCall:
		idx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: CallImm{FuncIdx: idx}}, nil

	case OpCallIndirect, OpReturnCallIndirect:
		typeIdx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		tableIdx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: CallIndirectImm{TypeIdx: typeIdx, TableIdx: tableIdx}}, nil

	case OpLocalGet, OpLocalSet, OpLocalTee:
		idx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: LocalImm{LocalIdx: idx}}, nil

	case OpGlobalGet, OpGlobalSet:
		idx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: GlobalImm{GlobalIdx: idx}}, nil

	case OpTableGet, OpTableSet:
		idx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: TableImm{TableIdx: idx}}, nil

	case OpI32Load, OpI64Load, OpF32Load, OpF64Load,
		OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U,
		OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U, OpI64Load32S, OpI64Load32U,
		OpI32Store, OpI64Store, OpF32Store, OpF64Store,
		OpI32Store8, OpI32Store16, OpI64Store8, OpI64Store16, OpI64Store32:
		mi, err := readMemArg(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: mi}, nil

	case OpMemorySize, OpMemoryGrow:
		idx, err := r.ReadByte()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: MemoryIdxImm{MemIdx: uint32(idx)}}, nil

	case OpI32Const:
		v, err := readVarint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: I32Imm{Value: v}}, nil

	case OpI64Const:
		v, err := readVarint64(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: I64Imm{Value: v}}, nil

	case OpF32Const:
		v, err := readFloat32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: F32Imm{Value: v}}, nil

	case OpF64Const:
		v, err := readFloat64(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: F64Imm{Value: v}}, nil

	case OpSelectType:
		n, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		types := make([]ValType, n)
		for i := range types {
			if types[i], err = readValType(r); err != nil {
				return Instruction{}, err
			}
		}
		return Instruction{Opcode: op, Imm: SelectTypeImm{Types: types}}, nil

	case OpRefNull:
		ht, err := readValType(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: RefNullImm{HeapType: ht}}, nil

	case OpRefFunc:
		idx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: op, Imm: RefFuncImm{FuncIdx: idx}}, nil

	case OpPrefixMisc:
		return decodeMiscInstruction(r)

	case OpPrefixSIMD:
		return decodeSIMDInstruction(r)

	default:
		return Instruction{}, fmt.Errorf("unknown opcode 0x%x", op)
	}
}

func readBlockType(r *bytes.Reader) (int32, error) {
	// Peek: a single-byte void/valtype encoding is a negative varint; a
	// type-index encoding is a non-negative varint (possibly multi-byte).
	v, err := readVarint32(r)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func readMemArg(r *bytes.Reader) (MemoryImm, error) {
	align, err := readVaruint32(r)
	if err != nil {
		return MemoryImm{}, err
	}
	// The low bits of align encode alignment; bit 6 (0x40) flags a
	// following explicit memory index (multi-memory shorthand).
	memIdx := uint32(0)
	if align&0x40 != 0 {
		align &^= 0x40
		if memIdx, err = readVaruint32(r); err != nil {
			return MemoryImm{}, err
		}
	}
	offset, err := readVaruint64(r)
	if err != nil {
		return MemoryImm{}, err
	}
	return MemoryImm{Offset: offset, Align: align, MemIdx: memIdx}, nil
}

func decodeMiscInstruction(r *bytes.Reader) (Instruction, error) {
	sub, err := readVaruint32(r)
	if err != nil {
		return Instruction{}, err
	}
	switch sub {
	case MiscI32TruncSatF32S, MiscI32TruncSatF32U, MiscI32TruncSatF64S, MiscI32TruncSatF64U,
		MiscI64TruncSatF32S, MiscI64TruncSatF32U, MiscI64TruncSatF64S, MiscI64TruncSatF64U:
		return Instruction{Opcode: OpPrefixMisc, Imm: MiscImm{SubOpcode: sub}}, nil
	case MiscMemoryInit:
		dataIdx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		memIdx, err := r.ReadByte()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: OpPrefixMisc, Imm: MiscImm{SubOpcode: sub, Operands: []uint32{dataIdx, uint32(memIdx)}}}, nil
	case MiscDataDrop:
		dataIdx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: OpPrefixMisc, Imm: MiscImm{SubOpcode: sub, Operands: []uint32{dataIdx}}}, nil
	case MiscMemoryCopy:
		dst, err := r.ReadByte()
		if err != nil {
			return Instruction{}, err
		}
		src, err := r.ReadByte()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: OpPrefixMisc, Imm: MiscImm{SubOpcode: sub, Operands: []uint32{uint32(dst), uint32(src)}}}, nil
	case MiscMemoryFill:
		memIdx, err := r.ReadByte()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: OpPrefixMisc, Imm: MiscImm{SubOpcode: sub, Operands: []uint32{uint32(memIdx)}}}, nil
	case MiscTableInit:
		elemIdx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		tableIdx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: OpPrefixMisc, Imm: MiscImm{SubOpcode: sub, Operands: []uint32{elemIdx, tableIdx}}}, nil
	case MiscElemDrop:
		elemIdx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: OpPrefixMisc, Imm: MiscImm{SubOpcode: sub, Operands: []uint32{elemIdx}}}, nil
	case MiscTableCopy:
		dst, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		src, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: OpPrefixMisc, Imm: MiscImm{SubOpcode: sub, Operands: []uint32{dst, src}}}, nil
	case MiscTableGrow, MiscTableSize, MiscTableFill:
		tableIdx, err := readVaruint32(r)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Opcode: OpPrefixMisc, Imm: MiscImm{SubOpcode: sub, Operands: []uint32{tableIdx}}}, nil
	default:
		return Instruction{}, fmt.Errorf("unknown misc sub-opcode %d", sub)
	}
}

func decodeSIMDInstruction(r *bytes.Reader) (Instruction, error) {
	sub, err := readVaruint32(r)
	if err != nil {
		return Instruction{}, err
	}
	imm := SIMDImm{SubOpcode: sub}
	switch sub {
	case SimdV128Load, SimdV128Load8x8S, SimdV128Load8x8U, SimdV128Load16x4S, SimdV128Load16x4U,
		SimdV128Load32x2S, SimdV128Load32x2U, SimdV128Load32Zero, SimdV128Load64Zero,
		SimdV128Load8Splat, SimdV128Load16Splat, SimdV128Load32Splat, SimdV128Load64Splat,
		SimdV128Store:
		mi, err := readMemArg(r)
		if err != nil {
			return Instruction{}, err
		}
		imm.MemArg = &mi
	case SimdV128Const:
		var buf [16]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return Instruction{}, err
		}
		imm.V128Const = buf
	case SimdI8x16Shuffle:
		mask := make([]byte, 16)
		if _, err := io.ReadFull(r, mask); err != nil {
			return Instruction{}, err
		}
		for _, b := range mask {
			if b >= 32 {
				return Instruction{}, fmt.Errorf("shuffle lane index %d out of range", b)
			}
		}
		imm.ShuffleMask = mask
	case SimdI8x16ExtractLaneS, SimdI8x16ExtractLaneU, SimdI8x16ReplaceLane,
		SimdI16x8ExtractLaneS, SimdI16x8ExtractLaneU, SimdI16x8ReplaceLane,
		SimdI32x4ExtractLane, SimdI32x4ReplaceLane,
		SimdI64x2ExtractLane, SimdI64x2ReplaceLane,
		SimdF32x4ExtractLane, SimdF32x4ReplaceLane,
		SimdF64x2ExtractLane, SimdF64x2ReplaceLane:
		b, err := r.ReadByte()
		if err != nil {
			return Instruction{}, err
		}
		if err := validateLaneIdx(sub, b); err != nil {
			return Instruction{}, err
		}
		imm.LaneIdx = &b
	}
	return Instruction{Opcode: OpPrefixSIMD, Imm: imm}, nil
}

func validateLaneIdx(sub uint32, lane byte) error {
	var count int
	switch sub {
	case SimdI8x16ExtractLaneS, SimdI8x16ExtractLaneU, SimdI8x16ReplaceLane:
		count = 16
	case SimdI16x8ExtractLaneS, SimdI16x8ExtractLaneU, SimdI16x8ReplaceLane:
		count = 8
	case SimdI32x4ExtractLane, SimdI32x4ReplaceLane, SimdF32x4ExtractLane, SimdF32x4ReplaceLane:
		count = 4
	case SimdI64x2ExtractLane, SimdI64x2ReplaceLane, SimdF64x2ExtractLane, SimdF64x2ReplaceLane:
		count = 2
	default:
		return nil
	}
	if int(lane) >= count {
		return fmt.Errorf("lane index %d out of range for %d lanes", lane, count)
	}
	return nil
}
