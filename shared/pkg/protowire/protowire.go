// Package protowire implementa o formato wire do protobuf de forma minimalista.
// Suficiente para os registros de chunk gravados em disco pelo FileStore.
// Wire types: 0=Varint, 1=64bit, 2=LengthDelimited, 5=32bit
package protowire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// WireType constantes do protobuf
const (
	WireVarint          = 0
	Wire64Bit           = 1
	WireLengthDelimited = 2
	Wire32Bit           = 5
)

var (
	// ErrTruncated indica que o buffer terminou no meio de um campo.
	ErrTruncated = errors.New("protowire: dados truncados")
	// ErrOverflow indica um varint com mais de 10 bytes.
	ErrOverflow = errors.New("protowire: varint overflow")
)

// ---------- ENCODER ----------

// Encoder acumula bytes no formato protobuf.
type Encoder struct {
	buf []byte
}

// NewEncoder cria um encoder com capacidade inicial sizeHint.
func NewEncoder(sizeHint int) *Encoder {
	if sizeHint < 16 {
		sizeHint = 16
	}
	return &Encoder{buf: make([]byte, 0, sizeHint)}
}

// Bytes retorna o buffer serializado.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

func (e *Encoder) appendTag(fieldNum int, wireType int) {
	e.buf = binary.AppendUvarint(e.buf, uint64(fieldNum<<3|wireType))
}

// EncodeUvarint codifica um uint64 (omitido quando zero).
func (e *Encoder) EncodeUvarint(fieldNum int, v uint64) {
	if v == 0 {
		return
	}
	e.appendTag(fieldNum, WireVarint)
	e.buf = binary.AppendUvarint(e.buf, v)
}

// EncodeSint codifica um inteiro com sinal em zigzag (sint64 do protobuf),
// para que coordenadas negativas não ocupem 10 bytes.
func (e *Encoder) EncodeSint(fieldNum int, v int64) {
	if v == 0 {
		return
	}
	e.appendTag(fieldNum, WireVarint)
	e.buf = binary.AppendUvarint(e.buf, zigzag(v))
}

// EncodeBytes codifica bytes raw (length-delimited).
func (e *Encoder) EncodeBytes(fieldNum int, v []byte) {
	if len(v) == 0 {
		return
	}
	e.appendTag(fieldNum, WireLengthDelimited)
	e.buf = binary.AppendUvarint(e.buf, uint64(len(v)))
	e.buf = append(e.buf, v...)
}

// EncodeFixed64 codifica um fixed64 (sempre presente).
func (e *Encoder) EncodeFixed64(fieldNum int, v uint64) {
	e.appendTag(fieldNum, Wire64Bit)
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func zigzag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// ---------- DECODER ----------

// Decoder lê campos protobuf de um buffer.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder cria um decoder sobre um buffer.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Done retorna true se não há mais bytes.
func (d *Decoder) Done() bool {
	return d.pos >= len(d.buf)
}

func (d *Decoder) readVarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.pos:])
	switch {
	case n == 0:
		return 0, ErrTruncated
	case n < 0:
		return 0, ErrOverflow
	}
	d.pos += n
	return v, nil
}

// ReadTag lê o número do campo e o tipo de wire do próximo campo.
func (d *Decoder) ReadTag() (fieldNum int, wireType int, err error) {
	v, err := d.readVarint()
	if err != nil {
		return 0, 0, err
	}
	return int(v >> 3), int(v & 0x07), nil
}

// ReadUvarint lê um varint sem sinal (após o tag).
func (d *Decoder) ReadUvarint() (uint64, error) {
	return d.readVarint()
}

// ReadSint lê um inteiro zigzag.
func (d *Decoder) ReadSint() (int64, error) {
	v, err := d.readVarint()
	return unzigzag(v), err
}

// ReadBytes lê um campo length-delimited. O slice retornado aponta para o buffer.
func (d *Decoder) ReadBytes() ([]byte, error) {
	length, err := d.readVarint()
	if err != nil {
		return nil, err
	}

	remaining := uint64(len(d.buf) - d.pos)
	if length > remaining {
		return nil, fmt.Errorf("%w: precisa %d, tem %d", ErrTruncated, length, remaining)
	}

	data := d.buf[d.pos : d.pos+int(length)]
	d.pos += int(length)
	return data, nil
}

// ReadFixed64 lê um fixed64.
func (d *Decoder) ReadFixed64() (uint64, error) {
	if d.pos+8 > len(d.buf) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

// SkipField pula um campo baseado no wire type.
func (d *Decoder) SkipField(wireType int) error {
	switch wireType {
	case WireVarint:
		_, err := d.readVarint()
		return err
	case Wire64Bit:
		return d.skip(8)
	case WireLengthDelimited:
		_, err := d.ReadBytes()
		return err
	case Wire32Bit:
		return d.skip(4)
	default:
		return fmt.Errorf("protowire: wire type desconhecido: %d", wireType)
	}
}

func (d *Decoder) skip(n int) error {
	if d.pos+n > len(d.buf) {
		return ErrTruncated
	}
	d.pos += n
	return nil
}
