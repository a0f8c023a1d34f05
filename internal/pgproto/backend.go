package pgproto

import (
	"fmt"

	"github.com/sqlcore/sqlcore/internal/ioutil"
)

// AuthenticationKind is the 32-bit sub-type of an Authentication* message.
type AuthenticationKind uint32

const (
	AuthOK                AuthenticationKind = 0
	AuthKerberosV5        AuthenticationKind = 2
	AuthCleartextPassword AuthenticationKind = 3
	AuthMD5Password       AuthenticationKind = 5
	AuthSCMCredential     AuthenticationKind = 6
	AuthGSS               AuthenticationKind = 7
	AuthGSSContinue       AuthenticationKind = 8
	AuthSSPI              AuthenticationKind = 9
	AuthSASL              AuthenticationKind = 10
	AuthSASLContinue      AuthenticationKind = 11
	AuthSASLFinal         AuthenticationKind = 12
)

// Authentication decodes an Authentication* message body ('R' tag). For
// AuthMD5Password, Extra holds the 4-byte salt. For AuthSASL, Extra holds
// the NUL-separated, NUL-terminated list of SASL mechanism names. For
// AuthSASLContinue/AuthSASLFinal, Extra holds the raw SCRAM server
// message bytes.
type Authentication struct {
	Kind  AuthenticationKind
	Extra []byte
}

func DecodeAuthentication(payload []byte) (Authentication, error) {
	r := ioutil.NewReadBuf(payload)
	kind, err := r.ReadUint32BE()
	if err != nil {
		return Authentication{}, err
	}
	return Authentication{Kind: AuthenticationKind(kind), Extra: r.ReadRest()}, nil
}

// ParameterStatus decodes a ParameterStatus message ('S' tag).
func DecodeParameterStatus(payload []byte) (name, value string, err error) {
	r := ioutil.NewReadBuf(payload)
	if name, err = r.ReadCString(); err != nil {
		return "", "", err
	}
	if value, err = r.ReadCString(); err != nil {
		return "", "", err
	}
	return name, value, nil
}

// BackendKeyData decodes a BackendKeyData message ('K' tag), used to
// build a CancelRequest on a fresh connection.
type BackendKeyData struct {
	ProcessID uint32
	SecretKey uint32
}

func DecodeBackendKeyData(payload []byte) (BackendKeyData, error) {
	r := ioutil.NewReadBuf(payload)
	pid, err := r.ReadUint32BE()
	if err != nil {
		return BackendKeyData{}, err
	}
	key, err := r.ReadUint32BE()
	if err != nil {
		return BackendKeyData{}, err
	}
	return BackendKeyData{ProcessID: pid, SecretKey: key}, nil
}

// TransactionStatus is the single status byte in ReadyForQuery.
type TransactionStatus byte

const (
	TxIdle     TransactionStatus = 'I'
	TxInBlock  TransactionStatus = 'T'
	TxFailed   TransactionStatus = 'E'
)

// DecodeReadyForQuery decodes a ReadyForQuery message ('Z' tag).
func DecodeReadyForQuery(payload []byte) (TransactionStatus, error) {
	if len(payload) != 1 {
		return 0, fmt.Errorf("pgproto: ReadyForQuery expected 1 byte, got %d", len(payload))
	}
	return TransactionStatus(payload[0]), nil
}

// FieldDescription is one column of a RowDescription.
type FieldDescription struct {
	Name         string
	TableOID     uint32
	ColumnAttNum uint16
	DataTypeOID  uint32
	DataTypeSize int16
	TypeModifier int32
	Format       int16
}

// DecodeRowDescription decodes a RowDescription message ('T' tag).
func DecodeRowDescription(payload []byte) ([]FieldDescription, error) {
	r := ioutil.NewReadBuf(payload)
	count, err := r.ReadUint16BE()
	if err != nil {
		return nil, err
	}
	fields := make([]FieldDescription, 0, count)
	for i := uint16(0); i < count; i++ {
		var f FieldDescription
		if f.Name, err = r.ReadCString(); err != nil {
			return nil, err
		}
		tableOID, err := r.ReadUint32BE()
		if err != nil {
			return nil, err
		}
		f.TableOID = tableOID
		if f.ColumnAttNum, err = r.ReadUint16BE(); err != nil {
			return nil, err
		}
		if f.DataTypeOID, err = r.ReadUint32BE(); err != nil {
			return nil, err
		}
		dtSize, err := r.ReadInt32BE()
		if err != nil {
			return nil, err
		}
		f.DataTypeSize = int16(dtSize)
		if f.TypeModifier, err = r.ReadInt32BE(); err != nil {
			return nil, err
		}
		format, err := r.ReadUint16BE()
		if err != nil {
			return nil, err
		}
		f.Format = int16(format)
		fields = append(fields, f)
	}
	return fields, nil
}

// DecodeParameterDescription decodes a ParameterDescription message
// ('t' tag): the inferred OID of each parameter in a prepared statement.
func DecodeParameterDescription(payload []byte) ([]uint32, error) {
	r := ioutil.NewReadBuf(payload)
	count, err := r.ReadUint16BE()
	if err != nil {
		return nil, err
	}
	oids := make([]uint32, count)
	for i := range oids {
		if oids[i], err = r.ReadUint32BE(); err != nil {
			return nil, err
		}
	}
	return oids, nil
}

// DecodeDataRow decodes a DataRow message ('D' tag) into a slice of
// column values, nil meaning SQL NULL.
func DecodeDataRow(payload []byte) ([][]byte, error) {
	r := ioutil.NewReadBuf(payload)
	count, err := r.ReadUint16BE()
	if err != nil {
		return nil, err
	}
	cols := make([][]byte, count)
	for i := range cols {
		n, err := r.ReadInt32BE()
		if err != nil {
			return nil, err
		}
		if n < 0 {
			continue
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		cols[i] = b
	}
	return cols, nil
}

// CommandComplete decodes a CommandComplete message ('C' tag): the
// command tag string, e.g. "INSERT 0 1", "UPDATE 3", "SELECT 10".
func DecodeCommandComplete(payload []byte) (string, error) {
	r := ioutil.NewReadBuf(payload)
	return r.ReadCString()
}

// FieldError is one field of an ErrorResponse/NoticeResponse, keyed by
// its single-byte field code (ErrorFieldSeverity etc).
type FieldError byte

const (
	ErrorFieldSeverity     FieldError = 'S'
	ErrorFieldSQLSTATE     FieldError = 'C'
	ErrorFieldMessage      FieldError = 'M'
	ErrorFieldDetail       FieldError = 'D'
	ErrorFieldHint         FieldError = 'H'
	ErrorFieldConstraint   FieldError = 'n'
	ErrorFieldTable        FieldError = 't'
	ErrorFieldColumn       FieldError = 'c'
)

// DecodeErrorFields decodes the common field-code/NUL-terminated-string
// body shared by ErrorResponse and NoticeResponse.
func DecodeErrorFields(payload []byte) (map[FieldError]string, error) {
	r := ioutil.NewReadBuf(payload)
	fields := make(map[FieldError]string)
	for {
		code, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if code == 0 {
			return fields, nil
		}
		s, err := r.ReadCString()
		if err != nil {
			return nil, err
		}
		fields[FieldError(code)] = s
	}
}

// NotificationResponse decodes an async NOTIFY delivery ('A' tag).
type NotificationResponse struct {
	ProcessID uint32
	Channel   string
	Payload   string
}

func DecodeNotificationResponse(payload []byte) (NotificationResponse, error) {
	r := ioutil.NewReadBuf(payload)
	pid, err := r.ReadUint32BE()
	if err != nil {
		return NotificationResponse{}, err
	}
	channel, err := r.ReadCString()
	if err != nil {
		return NotificationResponse{}, err
	}
	msg, err := r.ReadCString()
	if err != nil {
		return NotificationResponse{}, err
	}
	return NotificationResponse{ProcessID: pid, Channel: channel, Payload: msg}, nil
}
