package compiler

import (
	"github.com/wasmi/wasmi/internal/werr"
	"github.com/wasmi/wasmi/wasm"
)

func frameKindFor(opcode byte) frameKind {
	switch opcode {
	case wasm.OpLoop:
		return frameLoop
	case wasm.OpIf:
		return frameIf
	default:
		return frameBlock
	}
}

// pinLabelHere pins a forward label to the current end of the instruction
// stream, applying any patches recorded while it was unresolved.
func (c *compState) pinLabelHere(l *label) {
	l.pin(int32(len(c.enc.code)), c.enc.code)
}

func (c *compState) emitJump(target *label) {
	idx := c.enc.emitNoFuse(Instruction{Op: OpJump})
	target.addPatch(patchSite{kind: patchA, instr: idx}, c.enc.code)
}

func (c *compState) emitCondJump(op Op, condSlot int32, target *label) {
	idx := c.enc.emit(Instruction{Op: op, A: condSlot, Targets: []int32{0}})
	target.addPatch(patchSite{kind: patchTargetEntry, instr: idx, entry: 0}, c.enc.code)
}

// copyIntoSlots reads (without popping) the top len(dst) value-stack
// entries and copies each into its corresponding fixed slot, skipping a
// copy whose source and destination already coincide.
func (c *compState) copyIntoSlots(dst []int32) {
	entries := c.branchParamEntries(len(dst))
	for i, e := range entries {
		if e.slot != dst[i] {
			c.enc.emit(Instruction{Op: OpCopy, A: dst[i], B: e.slot})
		}
	}
}

// truncateStackTo pops and releases every value-stack entry above height.
func (c *compState) truncateStackTo(height int32) {
	for c.stack.height() > height {
		c.releaseEntry(c.stack.pop())
	}
}

// visitBlockLike handles Block, Loop and If headers. It mirrors the
// validator's control-frame push but additionally emits the header-time
// code a register machine needs: a loop's params are snapshotted into
// fixed slots so every back-edge converges on them, and an if's condition
// becomes a forward conditional jump to its else arm (or end, absent one).
func (c *compState) visitBlockLike(instr wasm.Instruction) error {
	opcode := instr.Opcode
	bt := instr.Imm.(wasm.BlockImm).Type
	params, results := blockArity(c, bt)
	kind := frameKindFor(opcode)

	parent := c.topFrame()
	if parent.unreachable {
		f := &ctrlFrame{kind: kind, unreachable: true}
		f.exitLabel = newLabel()
		if kind == frameLoop {
			f.loopHeadLabel = newLabel()
		}
		c.frames = append(c.frames, f)
		return nil
	}

	var condSlot int32
	if opcode == wasm.OpIf {
		cond := c.pop()
		condSlot = cond.slot
		c.releaseEntry(cond)
	}

	c.preserveAllLocals()

	entryHeight := c.stack.height() - int32(len(params))
	paramEntries := make([]vsEntry, len(params))
	copy(paramEntries, c.stack.entries[entryHeight:])

	f := &ctrlFrame{
		kind:         kind,
		paramTypes:   toInts(params),
		resultTypes:  toInts(results),
		paramV128:    v128Flags(params),
		resultV128:   v128Flags(results),
		startHeight:  entryHeight,
		paramEntries: paramEntries,
	}
	f.exitLabel = newLabel()
	f.resultSlots = c.allocStorageSlots(results)

	switch opcode {
	case wasm.OpBlock:
		c.enc.startBlock()
	case wasm.OpLoop:
		paramSlots := make([]int32, len(params))
		for i, t := range params {
			paramSlots[i] = c.regs.Push(isV128Type(t))
		}
		c.copyIntoSlotsFrom(paramEntries, paramSlots)
		c.truncateStackTo(entryHeight)
		for i, t := range params {
			c.stack.push(vsEntry{slot: paramSlots[i], vt: t, isDynamic: true})
		}
		f.paramSlots = paramSlots
		f.loopHeadLabel = newLabel()
		loopHead := int32(len(c.enc.code))
		c.enc.startBlock()
		// Pin the continue label at the block's own ConsumeFuel placeholder,
		// not past it: every br back to this loop must re-enter at the fuel
		// charge so each iteration re-pays it, not just the first entry.
		f.loopHeadLabel.pin(loopHead, c.enc.code)
	case wasm.OpIf:
		f.elseLabel = newLabel()
		c.emitCondJump(OpJumpIfZero, condSlot, f.elseLabel)
		c.enc.startBlock()
	}

	c.frames = append(c.frames, f)
	return nil
}

func (c *compState) copyIntoSlotsFrom(src []vsEntry, dst []int32) {
	for i, e := range src {
		c.enc.emit(Instruction{Op: OpCopy, A: dst[i], B: e.slot})
	}
}

func (c *compState) pinLabelHereOn(l *label) {
	l.pin(int32(len(c.enc.code)), c.enc.code)
}

// visitElse closes an If frame's Then arm and opens its Else arm.
func (c *compState) visitElse() error {
	f := c.topFrame()
	f.hasElse = true

	if !f.unreachable {
		c.copyIntoSlots(f.resultSlots)
		c.truncateStackTo(f.startHeight)
		c.emitJump(f.exitLabel)
		f.branchTargetReached = true
	} else {
		c.truncateStackTo(f.startHeight)
	}

	c.pinLabelHereOn(f.elseLabel)
	f.unreachable = false
	for _, e := range f.paramEntries {
		c.stack.push(e)
	}
	c.enc.startBlock()
	return nil
}

// visitEnd closes the current control frame, converging every path that
// reaches it (fallthrough, explicit branches, and -- for If -- the
// implicit empty Else) on the frame's result slots.
func (c *compState) visitEnd() error {
	f := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]

	if len(c.frames) == 0 {
		// Closing the function's own outer block: finalize as a fallthrough
		// return, mirroring an explicit `return` at the end of the body. An
		// explicit `return`/`br` to this depth already emitted its own
		// OpReturn via emitBranch, in which case f.unreachable is set and
		// there is nothing left to do here.
		if !f.unreachable {
			n := len(f.resultTypes)
			entries := c.branchParamEntries(n)
			slots := make([]int32, n)
			for i, e := range entries {
				slots[i] = e.slot
			}
			c.enc.emitNoFuse(Instruction{Op: OpReturn, Targets: slots})
		}
		c.truncateStackTo(f.startHeight)
		return nil
	}

	reachableFallthrough := !f.unreachable
	if f.kind == frameIf && !f.hasElse {
		// No explicit Else: the true-condition (then) path falls through to
		// here and must jump past the false path's param-forwarding copies
		// below. The false-condition path is targeted by the If's initial
		// JumpIfZero directly at elseLabel, landing exactly at those copies,
		// which forward the original params unchanged -- validation
		// guarantees they have exactly the block's result types.
		if reachableFallthrough {
			c.copyIntoSlots(f.resultSlots)
			c.truncateStackTo(f.startHeight)
			c.emitJump(f.exitLabel)
		} else {
			c.truncateStackTo(f.startHeight)
		}
		c.pinLabelHereOn(f.elseLabel)
		for _, e := range f.paramEntries {
			c.enc.emit(Instruction{Op: OpCopy, A: f.resultSlots[indexOfType(f.paramEntries, e)], B: e.slot})
		}
	} else {
		if reachableFallthrough {
			c.copyIntoSlots(f.resultSlots)
		}
		c.truncateStackTo(f.startHeight)
	}

	c.pinLabelHereOn(f.exitLabel)
	c.enc.startBlock()

	var reachable bool
	switch f.kind {
	case frameLoop:
		reachable = reachableFallthrough
	default:
		reachable = reachableFallthrough || f.branchTargetReached || (f.kind == frameIf && !f.hasElse)
	}

	for i, t := range f.resultTypes {
		c.stack.push(vsEntry{slot: f.resultSlots[i], vt: wasm.ValType(t), isDynamic: false})
	}
	c.topFrame().unreachable = !reachable
	return nil
}

// indexOfType finds e's position within entries by identity of slot, used
// only for the no-else If closing copy where paramEntries and resultSlots
// are known to have matching arity and order.
func indexOfType(entries []vsEntry, e vsEntry) int {
	for i := range entries {
		if entries[i].slot == e.slot {
			return i
		}
	}
	return 0
}

// emitBranch emits the value-copy + jump for branching out to depth,
// without touching the current frame's reachability (the caller decides
// that: br always kills the rest of the current block, br_if doesn't).
func (c *compState) emitBranch(depth uint32) error {
	if int(depth) == len(c.frames)-1 {
		return c.emitReturn()
	}
	f := c.frameAt(depth)
	if f.kind == frameLoop {
		c.copyIntoSlots(f.paramSlots)
		c.emitJump(f.loopHeadLabel)
		return nil
	}
	c.copyIntoSlots(f.resultSlots)
	c.emitJump(f.exitLabel)
	f.branchTargetReached = true
	return nil
}

func (c *compState) emitReturn() error {
	root := c.frames[0]
	n := len(root.resultTypes)
	entries := c.branchParamEntries(n)
	slots := make([]int32, n)
	for i, e := range entries {
		slots[i] = e.slot
	}
	c.enc.emitNoFuse(Instruction{Op: OpReturn, Targets: slots})
	return nil
}

func (c *compState) visitBr(instr wasm.Instruction) error {
	depth := instr.Imm.(wasm.BranchImm).LabelIdx
	if err := c.emitBranch(depth); err != nil {
		return err
	}
	c.topFrame().unreachable = true
	return nil
}

func (c *compState) visitBrIf(instr wasm.Instruction) error {
	depth := instr.Imm.(wasm.BranchImm).LabelIdx
	cond := c.pop()

	if cond.isImmediate {
		bits := c.constBits(cond.slot)
		if uint32(bits) != 0 {
			return c.emitBranch(depth)
		}
		return nil
	}

	skip := newLabel()
	c.emitCondJump(OpJumpIfZero, cond.slot, skip)
	if err := c.emitBranch(depth); err != nil {
		return err
	}
	c.pinLabelHereOn(skip)
	return nil
}

// visitBrTable desugars the table into a chain of equality tests against
// the index followed by an unconditional branch to the default, rather
// than a single jump-table instruction: each target potentially needs its
// own distinct value copy (different frames have different result slots),
// which a flat jump table can't express without per-entry copy preludes.
func (c *compState) visitBrTable(instr wasm.Instruction) error {
	imm := instr.Imm.(wasm.BrTableImm)
	idx := c.pop()

	if idx.isImmediate {
		bits := uint32(c.constBits(idx.slot))
		depth := imm.Default
		if int(bits) < len(imm.Labels) {
			depth = imm.Labels[bits]
		}
		if err := c.emitBranch(depth); err != nil {
			return err
		}
		c.topFrame().unreachable = true
		return nil
	}

	for i, depth := range imm.Labels {
		eq := c.regs.Push(false)
		c.enc.emit(Instruction{Op: Op(wasm.OpI32Eq), A: eq, B: idx.slot, C: c.regs.ConstSlot(uint64(uint32(i)))})
		skip := newLabel()
		c.emitCondJump(OpJumpIfZero, eq, skip)
		c.regs.Pop(1)
		if err := c.emitBranch(depth); err != nil {
			return err
		}
		c.pinLabelHereOn(skip)
	}
	c.releaseEntry(idx)
	if err := c.emitBranch(imm.Default); err != nil {
		return err
	}
	c.topFrame().unreachable = true
	return nil
}

func (c *compState) visitReturn() error {
	if err := c.emitReturn(); err != nil {
		return err
	}
	c.topFrame().unreachable = true
	return nil
}

func (c *compState) visitCall(instr wasm.Instruction, isReturn bool) error {
	funcIdx := instr.Imm.(wasm.CallImm).FuncIdx
	ft := c.module.GetFuncType(funcIdx)
	if ft == nil {
		return werr.New(werr.PhaseTranslate, werr.KindNotFound).
			Detail("call: function %d has no type", funcIdx).Build()
	}
	c.preserveAllLocals()

	entries := c.branchParamEntries(len(ft.Params))
	args := make([]int32, len(entries))
	for i, e := range entries {
		args[i] = e.slot
	}
	c.truncateStackTo(c.stack.height() - int32(len(entries)))

	if isReturn {
		c.enc.emitNoFuse(Instruction{Op: OpReturnCall, Imm: uint64(funcIdx), Targets: args})
		c.topFrame().unreachable = true
		return nil
	}

	results := make([]int32, len(ft.Results))
	for i, t := range ft.Results {
		results[i] = c.regs.Push(isV128Type(t))
	}
	c.enc.emitNoFuse(Instruction{Op: OpCall, Imm: uint64(funcIdx), Targets: args, Aux: results})
	for i, t := range ft.Results {
		c.stack.push(vsEntry{slot: results[i], vt: t, isDynamic: true})
	}
	return nil
}

func (c *compState) visitCallIndirect(instr wasm.Instruction, isReturn bool) error {
	imm := instr.Imm.(wasm.CallIndirectImm)
	ft := &c.module.Types[imm.TypeIdx]
	c.preserveAllLocals()

	idxEntry := c.pop()

	entries := c.branchParamEntries(len(ft.Params))
	args := make([]int32, len(entries))
	for i, e := range entries {
		args[i] = e.slot
	}
	c.truncateStackTo(c.stack.height() - int32(len(entries)))

	op := OpCallIndirect
	if isReturn {
		op = OpReturnCallIndirect
	}
	ci := Instruction{Op: op, A: idxEntry.slot, B: int32(imm.TableIdx), C: int32(imm.TypeIdx), Targets: args}

	if isReturn {
		c.enc.emitNoFuse(ci)
		c.releaseEntry(idxEntry)
		c.topFrame().unreachable = true
		return nil
	}

	results := make([]int32, len(ft.Results))
	for i, t := range ft.Results {
		results[i] = c.regs.Push(isV128Type(t))
	}
	ci.Aux = results
	c.enc.emitNoFuse(ci)
	c.releaseEntry(idxEntry)
	for i, t := range ft.Results {
		c.stack.push(vsEntry{slot: results[i], vt: t, isDynamic: true})
	}
	return nil
}

// visitSelect handles both the untyped select (operand types inferred,
// pre-reftypes) and the explicitly-typed select.
func (c *compState) visitSelect() error {
	cond := c.pop()
	b := c.pop()
	a := c.pop()

	if cond.isImmediate {
		chosen := a
		if uint32(c.constBits(cond.slot)) == 0 {
			chosen = b
		}
		other := b
		if uint32(c.constBits(cond.slot)) == 0 {
			other = a
		}
		c.releaseEntry(other)
		c.releaseEntry(cond)
		c.stack.push(chosen)
		return nil
	}

	dst := c.regs.Push(isV128Type(a.vt))
	c.enc.emit(Instruction{Op: OpSelect, A: dst, B: a.slot, C: b.slot, Imm: uint64(uint32(cond.slot))})
	c.releaseEntry(a)
	c.releaseEntry(b)
	c.releaseEntry(cond)
	c.stack.push(vsEntry{slot: dst, vt: a.vt, isDynamic: true})
	return nil
}

func (c *compState) visitLocalGet(instr wasm.Instruction) error {
	idx := int32(instr.Imm.(wasm.LocalImm).LocalIdx)
	c.stack.push(vsEntry{slot: idx, vt: c.locals[idx], isLocal: true, localIdx: idx})
	return nil
}

func (c *compState) visitLocalSetTee(instr wasm.Instruction, isTee bool) error {
	idx := int32(instr.Imm.(wasm.LocalImm).LocalIdx)
	val := c.pop()
	c.materializeLocal(idx)
	if val.slot != idx {
		c.enc.emit(Instruction{Op: OpCopy, A: idx, B: val.slot})
	}
	c.releaseEntry(val)
	if isTee {
		c.stack.push(vsEntry{slot: idx, vt: c.locals[idx], isLocal: true, localIdx: idx})
	}
	return nil
}

func (c *compState) visitGlobalGet(instr wasm.Instruction) error {
	idx := instr.Imm.(wasm.GlobalImm).GlobalIdx
	gt := c.module.GlobalType(idx)
	dst := c.regs.Push(isV128Type(gt.ValType))
	c.enc.emit(Instruction{Op: OpGlobalGet, A: dst, Imm: uint64(idx)})
	c.stack.push(vsEntry{slot: dst, vt: gt.ValType, isDynamic: true})
	return nil
}

func (c *compState) visitGlobalSet(instr wasm.Instruction) error {
	idx := instr.Imm.(wasm.GlobalImm).GlobalIdx
	val := c.pop()
	c.enc.emit(Instruction{Op: OpGlobalSet, B: val.slot, Imm: uint64(idx)})
	c.releaseEntry(val)
	return nil
}

func (c *compState) visitTableGet(instr wasm.Instruction) error {
	idx := instr.Imm.(wasm.TableImm).TableIdx
	elem := c.pop()
	dst := c.regs.Push(false)
	c.enc.emit(Instruction{Op: Op(wasm.OpTableGet), A: dst, B: elem.slot, Imm: uint64(idx)})
	c.releaseEntry(elem)
	rt := wasm.ValFuncRef
	if int(idx) < len(c.module.Tables) {
		rt = c.module.Tables[idx].ElemType
	}
	c.stack.push(vsEntry{slot: dst, vt: rt, isDynamic: true})
	return nil
}

func (c *compState) visitTableSet(instr wasm.Instruction) error {
	idx := instr.Imm.(wasm.TableImm).TableIdx
	val := c.pop()
	elem := c.pop()
	c.enc.emit(Instruction{Op: Op(wasm.OpTableSet), A: elem.slot, B: val.slot, Imm: uint64(idx)})
	c.releaseEntry(val)
	c.releaseEntry(elem)
	return nil
}

func (c *compState) visitUnaryGeneric(op Op, resultType wasm.ValType) error {
	a := c.pop()
	dst := c.regs.Push(isV128Type(resultType))
	c.enc.emit(Instruction{Op: op, A: dst, B: a.slot})
	c.releaseEntry(a)
	c.stack.push(vsEntry{slot: dst, vt: resultType, isDynamic: true})
	return nil
}
