package myproto

import (
	"fmt"

	"github.com/sqlcore/sqlcore/internal/ioutil"
)

// Capability flags (mysql_com.h CLIENT_*).
const (
	CapabilityLongPassword uint32 = 1 << 0
	CapabilityFoundRows    uint32 = 1 << 1
	CapabilityLongFlag     uint32 = 1 << 2
	CapabilityConnectWithDB uint32 = 1 << 3
	CapabilityNoSchema     uint32 = 1 << 4
	CapabilityCompress     uint32 = 1 << 5
	CapabilityODBC         uint32 = 1 << 6
	CapabilityLocalFiles   uint32 = 1 << 7
	CapabilityIgnoreSpace  uint32 = 1 << 8
	CapabilityProtocol41   uint32 = 1 << 9
	CapabilityInteractive  uint32 = 1 << 10
	CapabilitySSL          uint32 = 1 << 11
	CapabilityIgnoreSigpipe uint32 = 1 << 12
	CapabilityTransactions uint32 = 1 << 13
	CapabilitySecureConnection uint32 = 1 << 15
	CapabilityMultiStatements  uint32 = 1 << 16
	CapabilityMultiResults     uint32 = 1 << 17
	CapabilityPSMultiResults   uint32 = 1 << 18
	CapabilityPluginAuth       uint32 = 1 << 19
	CapabilityConnectAttrs     uint32 = 1 << 20
	CapabilityPluginAuthLenencData uint32 = 1 << 21
	CapabilityCanHandleExpiredPasswords uint32 = 1 << 22
	CapabilitySessionTrack     uint32 = 1 << 23
	CapabilityDeprecateEOF     uint32 = 1 << 24

	// DefaultClientCapabilities is what the core negotiates as a client.
	DefaultClientCapabilities = CapabilityLongPassword | CapabilityProtocol41 |
		CapabilitySecureConnection | CapabilityPluginAuth | CapabilityPluginAuthLenencData |
		CapabilityTransactions | CapabilityMultiResults | CapabilityDeprecateEOF |
		CapabilityConnectWithDB
)

// Auth plugin names recognized during AuthSwitchRequest negotiation.
const (
	AuthMySQLNativePassword = "mysql_native_password"
	AuthCachingSHA2Password = "caching_sha2_password"
	AuthSHA256Password      = "sha256_password"
)

// HandshakeV10 is the decoded initial server greeting.
type HandshakeV10 struct {
	ProtocolVersion byte
	ServerVersion   string
	ConnectionID    uint32
	AuthPluginData  []byte // combined part1 (8) + part2, NUL-stripped
	Capabilities    uint32
	Charset         byte
	StatusFlags     uint16
	AuthPluginName  string
}

// DecodeHandshakeV10 parses the server's initial handshake packet.
func DecodeHandshakeV10(payload []byte) (HandshakeV10, error) {
	r := ioutil.NewReadBuf(payload)
	var h HandshakeV10
	var err error
	if h.ProtocolVersion, err = r.ReadByte(); err != nil {
		return h, err
	}
	if h.ProtocolVersion != 10 {
		return h, fmt.Errorf("myproto: unsupported handshake protocol version %d", h.ProtocolVersion)
	}
	if h.ServerVersion, err = r.ReadCString(); err != nil {
		return h, err
	}
	if h.ConnectionID, err = r.ReadUint32LE(); err != nil {
		return h, err
	}
	authPart1, err := r.ReadBytes(8)
	if err != nil {
		return h, err
	}
	if _, err = r.ReadByte(); err != nil { // filler
		return h, err
	}
	capLow, err := r.ReadUint16LE()
	if err != nil {
		return h, err
	}
	if h.Charset, err = r.ReadByte(); err != nil {
		return h, err
	}
	if h.StatusFlags, err = r.ReadUint16LE(); err != nil {
		return h, err
	}
	capHigh, err := r.ReadUint16LE()
	if err != nil {
		return h, err
	}
	h.Capabilities = uint32(capLow) | uint32(capHigh)<<16

	authDataLen, err := r.ReadByte()
	if err != nil {
		return h, err
	}
	if _, err = r.ReadBytes(10); err != nil { // reserved
		return h, err
	}

	h.AuthPluginData = append([]byte{}, authPart1...)
	if h.Capabilities&CapabilitySecureConnection != 0 {
		part2Len := int(authDataLen) - 8
		if part2Len < 13 {
			part2Len = 13
		}
		part2, err := r.ReadBytes(part2Len)
		if err != nil {
			return h, err
		}
		// Strip the NUL terminator conventionally present at the end.
		if len(part2) > 0 && part2[len(part2)-1] == 0 {
			part2 = part2[:len(part2)-1]
		}
		h.AuthPluginData = append(h.AuthPluginData, part2...)
	}
	if h.Capabilities&CapabilityPluginAuth != 0 {
		name, err := r.ReadCString()
		if err != nil {
			// Some servers omit the NUL terminator on the final field.
			h.AuthPluginName = string(r.ReadRest())
		} else {
			h.AuthPluginName = name
		}
	}
	return h, nil
}

// HandshakeResponse41Params is everything HandshakeResponse41 needs to
// build the client's reply.
type HandshakeResponse41Params struct {
	Capabilities   uint32
	MaxPacketSize  uint32
	Charset        byte
	Username       string
	AuthResponse   []byte
	Database       string
	AuthPluginName string
	ConnectAttrs   map[string]string
}

// EncodeHandshakeResponse41 builds the HandshakeResponse41 body sent in
// reply to HandshakeV10.
func EncodeHandshakeResponse41(p HandshakeResponse41Params) []byte {
	var wb ioutil.WriteBuf
	wb.WriteUint32LE(p.Capabilities)
	wb.WriteUint32LE(p.MaxPacketSize)
	wb.WriteByte(p.Charset)
	wb.WriteBytes(make([]byte, 23)) // reserved
	wb.WriteCString(p.Username)

	if p.Capabilities&CapabilityPluginAuthLenencData != 0 {
		wb.WriteLenencInt(uint64(len(p.AuthResponse)))
		wb.WriteBytes(p.AuthResponse)
	} else if p.Capabilities&CapabilitySecureConnection != 0 {
		wb.WriteByte(byte(len(p.AuthResponse)))
		wb.WriteBytes(p.AuthResponse)
	} else {
		wb.WriteCString(string(p.AuthResponse))
	}

	if p.Capabilities&CapabilityConnectWithDB != 0 {
		wb.WriteCString(p.Database)
	}
	if p.Capabilities&CapabilityPluginAuth != 0 {
		wb.WriteCString(p.AuthPluginName)
	}
	if p.Capabilities&CapabilityConnectAttrs != 0 {
		var attrs ioutil.WriteBuf
		for k, v := range p.ConnectAttrs {
			attrs.WriteLenencString(k)
			attrs.WriteLenencString(v)
		}
		wb.WriteLenencInt(uint64(attrs.Len()))
		wb.WriteBytes(attrs.Bytes())
	}
	return wb.Bytes()
}

// EncodeSSLRequest builds the abbreviated SSLRequest packet: the first
// four fields of HandshakeResponse41 with CapabilitySSL set and nothing
// else, sent before the client upgrades the socket to TLS. The full
// HandshakeResponse41 follows over the now-encrypted connection.
func EncodeSSLRequest(capabilities, maxPacketSize uint32, charset byte) []byte {
	var wb ioutil.WriteBuf
	wb.WriteUint32LE(capabilities)
	wb.WriteUint32LE(maxPacketSize)
	wb.WriteByte(charset)
	wb.WriteBytes(make([]byte, 23)) // reserved
	return wb.Bytes()
}

// AuthSwitchRequest is sent by the server to request a different auth
// plugin than the one offered in the initial handshake.
type AuthSwitchRequest struct {
	PluginName string
	PluginData []byte
}

// DecodeAuthSwitchRequest decodes an AuthSwitchRequest packet (header byte
// 0xfe already identified by the caller).
func DecodeAuthSwitchRequest(payload []byte) (AuthSwitchRequest, error) {
	r := ioutil.NewReadBuf(payload[1:])
	var req AuthSwitchRequest
	var err error
	if req.PluginName, err = r.ReadCString(); err != nil {
		return req, err
	}
	req.PluginData = r.ReadRest()
	// Strip trailing NUL some servers include.
	if n := len(req.PluginData); n > 0 && req.PluginData[n-1] == 0 {
		req.PluginData = req.PluginData[:n-1]
	}
	return req, nil
}

// AuthMoreData (0x01 header) carries caching_sha2_password's fast-auth
// result byte or an RSA public key for the full/slow path.
const (
	AuthMoreDataFastAuthSuccess byte = 0x03
	AuthMoreDataPerformFullAuth byte = 0x04
)

// DecodeAuthMoreData strips the 0x01 header byte from an AuthMoreData
// packet.
func DecodeAuthMoreData(payload []byte) []byte {
	if len(payload) > 0 && payload[0] == 0x01 {
		return payload[1:]
	}
	return payload
}
