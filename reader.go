package vocrecord

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// ErrCorruptRecord is returned when a TFRecord frame fails its checksum or is truncated.
var ErrCorruptRecord = errors.New("corrupt record")

const (
	frameHeaderLen = 12 // uint64 length + masked CRC of the length.
	frameFooterLen = 4  // Masked CRC of the data.
)

var crc32c = crc32.MakeTable(crc32.Castagnoli)

// maskedCRC is the masked CRC32-C checksum used by the TFRecord format.
func maskedCRC(data []byte) uint32 {
	crc := crc32.Checksum(data, crc32c)
	return ((crc >> 15) | (crc << 17)) + 0xa282ead8
}

// frameLength returns the payload length of the frame starting at offset in a file of the given
// size. The length must pass its checksum and the whole frame must fit into the file.
func frameLength(file io.ReaderAt, offset, size int64) (uint64, error) {
	if size-offset < frameHeaderLen+frameFooterLen {
		return 0, fmt.Errorf("%w: truncated frame at offset %d", ErrCorruptRecord, offset)
	}
	var header [frameHeaderLen]byte
	if _, err := file.ReadAt(header[:], offset); err != nil {
		return 0, fmt.Errorf("%w: failed to read the header: %v", ErrCorruptRecord, err)
	}
	if binary.LittleEndian.Uint32(header[8:]) != maskedCRC(header[:8]) {
		return 0, fmt.Errorf("%w: length checksum mismatch", ErrCorruptRecord)
	}

	length := binary.LittleEndian.Uint64(header[:8])
	if length > uint64(size-offset-frameHeaderLen-frameFooterLen) {
		return 0, fmt.Errorf("%w: length %d exceeds the file", ErrCorruptRecord, length)
	}
	return length, nil
}

// checkFrameData compares the data checksum stored at offset with the checksum of payload.
func checkFrameData(file io.ReaderAt, offset int64, payload []byte) error {
	var footer [frameFooterLen]byte
	if _, err := file.ReadAt(footer[:], offset); err != nil {
		return fmt.Errorf("%w: failed to read the data checksum: %v", ErrCorruptRecord, err)
	}
	if binary.LittleEndian.Uint32(footer[:]) != maskedCRC(payload) {
		return fmt.Errorf("%w: data checksum mismatch", ErrCorruptRecord)
	}
	return nil
}

// ReadRecords reads the TFRecord file at path and calls fn for every record, in file order. Reading
// stops at the first error, including errors returned by fn.
func ReadRecords(path string, fn func(*Record) error) (err error) {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(file, &err)

	info, err := file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()

	// Frames are bounds checked against the file size before tfrecord.Read allocates the payload.
	var offset int64
	for i := 0; offset < size; i++ {
		length, err := frameLength(file, offset, size)
		if err != nil {
			return fmt.Errorf("record %d in %q: %w", i, path, err)
		}
		payload, err := tfrecord.Read(file)
		if err != nil {
			return fmt.Errorf("record %d in %q: %w: %v", i, path, ErrCorruptRecord, err)
		}
		if uint64(len(payload)) != length {
			return fmt.Errorf("record %d in %q: %w: short payload", i, path, ErrCorruptRecord)
		}
		dataEnd := offset + frameHeaderLen + int64(length)
		if err := checkFrameData(file, dataEnd, payload); err != nil {
			return fmt.Errorf("record %d in %q: %w", i, path, err)
		}
		offset = dataEnd + frameFooterLen

		var e tensorflow.Example
		if err := proto.Unmarshal(payload, &e); err != nil {
			return fmt.Errorf("record %d in %q: %w: %v", i, path, ErrCorruptRecord, err)
		}
		rec, err := recordFromExample(&e)
		if err != nil {
			return fmt.Errorf("record %d in %q: %w", i, path, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}

	return nil
}

// recordFromExample converts an object detection example back into a record.
func recordFromExample(e *tensorflow.Example) (*Record, error) {
	if e.Features == nil {
		return nil, fmt.Errorf("example has no features")
	}
	features := e.Features.Feature

	var errs []error
	bytesList := func(key string) [][]byte {
		if f, ok := features[key].GetKind().(*tensorflow.Feature_BytesList); ok && f.BytesList != nil {
			return f.BytesList.Value
		}
		errs = append(errs, fmt.Errorf("feature %q is not a bytes list", key))
		return nil
	}
	floatList := func(key string) []float32 {
		if f, ok := features[key].GetKind().(*tensorflow.Feature_FloatList); ok && f.FloatList != nil {
			return f.FloatList.Value
		}
		errs = append(errs, fmt.Errorf("feature %q is not a float list", key))
		return nil
	}
	int64List := func(key string) []int64 {
		if f, ok := features[key].GetKind().(*tensorflow.Feature_Int64List); ok && f.Int64List != nil {
			return f.Int64List.Value
		}
		errs = append(errs, fmt.Errorf("feature %q is not an int64 list", key))
		return nil
	}
	firstInt := func(key string) int {
		if v := int64List(key); len(v) > 0 {
			return int(v[0])
		}
		return 0
	}
	firstBytes := func(key string) []byte {
		if v := bytesList(key); len(v) > 0 {
			return v[0]
		}
		return nil
	}

	r := &Record{
		Height:   firstInt(featureHeight),
		Width:    firstInt(featureWidth),
		Filename: string(firstBytes(featureFilename)),
		SourceID: string(firstBytes(featureSourceID)),
		Encoded:  firstBytes(featureEncoded),
		Format:   string(firstBytes(featureFormat)),
		XMins:    floatList(featureXMin),
		XMaxs:    floatList(featureXMax),
		YMins:    floatList(featureYMin),
		YMaxs:    floatList(featureYMax),
		Classes:  int64List(featureClassLabel),
	}
	for _, text := range bytesList(featureClassText) {
		r.ClassesText = append(r.ClassesText, string(text))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return r, nil
}
