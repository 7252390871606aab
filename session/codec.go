package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const formatVersionV1 = 1

// Encode serializes a [Session] to the compact binary record format:
// version byte, length-prefixed user id / user agent / IP, then the three
// big-endian int64 timestamps. User agents get a two-byte length prefix
// since browsers routinely exceed 255 bytes.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(formatVersionV1)

	if len(s.UserID) > 255 {
		return nil, errors.New("user id too long")
	}
	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)

	if len(s.UserAgent) > 65535 {
		return nil, errors.New("user agent too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(s.UserAgent))); err != nil {
		return nil, err
	}
	buf.WriteString(s.UserAgent)

	if len(s.IP) > 255 {
		return nil, errors.New("ip too long")
	}
	buf.WriteByte(byte(len(s.IP)))
	buf.WriteString(s.IP)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.LastSeen); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a binary session record. Token is left empty; the store
// fills it in from the Redis key.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != formatVersionV1 {
		return nil, errors.New("invalid session record version")
	}

	s := &Session{}

	userLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	userID := make([]byte, userLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	s.UserID = string(userID)

	var uaLen uint16
	if err := binary.Read(reader, binary.BigEndian, &uaLen); err != nil {
		return nil, err
	}
	userAgent := make([]byte, uaLen)
	if _, err := io.ReadFull(reader, userAgent); err != nil {
		return nil, err
	}
	s.UserAgent = string(userAgent)

	ipLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	ip := make([]byte, ipLen)
	if _, err := io.ReadFull(reader, ip); err != nil {
		return nil, err
	}
	s.IP = string(ip)

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.LastSeen); err != nil {
		return nil, err
	}

	return s, nil
}
