package wasm

import "testing"

// buildMinimalModule hand-assembles the binary for:
//
//	(module
//	  (func (export "add") (param i32 i32) (result i32)
//	    local.get 0
//	    local.get 1
//	    i32.add))
func buildMinimalModule() []byte {
	b := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	// Type section: one type, (i32,i32)->i32.
	typeSec := []byte{0x01, 0x60, 0x02, ValI32byte(), ValI32byte(), 0x01, ValI32byte()}
	b = append(b, section(SecType, typeSec)...)

	// Function section: one function, type 0.
	b = append(b, section(SecFunction, []byte{0x01, 0x00})...)

	// Export section: export func 0 as "add".
	exportSec := []byte{0x01, 0x03, 'a', 'd', 'd', KindFunc, 0x00}
	b = append(b, section(SecExport, exportSec)...)

	// Code section: one function body, no locals, local.get 0; local.get 1; i32.add; end.
	body := []byte{0x20, 0x00, 0x20, 0x01, 0x6A, 0x0B}
	funcBody := append([]byte{0x00}, body...) // 0 local-entry groups
	funcBody = append([]byte{byte(len(funcBody))}, funcBody...)
	codeSec := append([]byte{0x01}, funcBody...)
	b = append(b, section(SecCode, codeSec)...)

	return b
}

func ValI32byte() byte { return byte(ValI32) }

func section(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, EncodeVaruint32(uint32(len(payload)))...)
	out = append(out, payload...)
	return out
}

func TestDecodeMinimalModule(t *testing.T) {
	m, err := DecodeModule(buildMinimalModule())
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	if len(m.Types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(m.Types))
	}
	if len(m.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(m.Functions))
	}
	if len(m.Exports) != 1 || m.Exports[0].Name != "add" {
		t.Fatalf("expected export \"add\", got %+v", m.Exports)
	}
	if len(m.Code) != 1 {
		t.Fatalf("expected 1 code entry, got %d", len(m.Code))
	}
	instrs := m.Code[0].Instrs
	if len(instrs) != 4 {
		t.Fatalf("expected 4 instructions (2x local.get, add, end), got %d: %+v", len(instrs), instrs)
	}
	if instrs[0].Opcode != OpLocalGet || instrs[1].Opcode != OpLocalGet || instrs[2].Opcode != OpI32Add {
		t.Fatalf("unexpected instruction sequence: %+v", instrs)
	}
	if err := ValidateModule(m); err != nil {
		t.Fatalf("ValidateModule: %v", err)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	bad := []byte{0x00, 0x61, 0x73, 0x99, 0x01, 0x00, 0x00, 0x00}
	if _, err := DecodeModule(bad); err == nil {
		t.Error("expected error for bad magic, got nil")
	}
}

func TestValidateRejectsStackUnderflow(t *testing.T) {
	b := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	typeSec := []byte{0x01, 0x60, 0x00, 0x01, ValI32byte()}
	b = append(b, section(SecType, typeSec)...)
	b = append(b, section(SecFunction, []byte{0x01, 0x00})...)
	// Body: i32.add with nothing pushed first -- should fail validation.
	body := []byte{0x6A, 0x0B}
	funcBody := append([]byte{0x00}, body...)
	funcBody = append([]byte{byte(len(funcBody))}, funcBody...)
	codeSec := append([]byte{0x01}, funcBody...)
	b = append(b, section(SecCode, codeSec)...)

	m, err := DecodeModule(b)
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	if err := ValidateModule(m); err == nil {
		t.Error("expected stack underflow error, got nil")
	}
}
