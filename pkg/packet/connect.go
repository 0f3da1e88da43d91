package packet

// Connect represents a CONNECT packet: the first packet a client sends to
// register its identity with a broker.
//
// Wire layout: flags(1) | keep_alive(2) | client_id(string) |
// [username(string) if flag] | [password(bytes) if flag].
// Username and password presence is carried in the flags byte, never
// inferred from field content.
type Connect struct {
	ClientID     string
	KeepAlive    uint16 // seconds
	CleanSession bool

	UsernameFlag bool
	Username     string
	PasswordFlag bool
	Password     []byte
}

// NewConnect creates a CONNECT packet with a 60 second keep-alive and a
// clean session.
func NewConnect(clientID string) *Connect {
	return &Connect{
		ClientID:     clientID,
		KeepAlive:    60,
		CleanSession: true,
	}
}

// SetCredentials sets the username and password and their presence flags.
func (c *Connect) SetCredentials(username string, password []byte) {
	c.Username = username
	c.UsernameFlag = true
	c.Password = password
	c.PasswordFlag = true
}

// Type returns TypeConnect.
func (c *Connect) Type() Type {
	return TypeConnect
}

// flags returns the connect flags byte.
func (c *Connect) flags() byte {
	var flags byte
	if c.CleanSession {
		flags |= connectFlagCleanSession
	}
	if c.PasswordFlag {
		flags |= connectFlagPassword
	}
	if c.UsernameFlag {
		flags |= connectFlagUsername
	}
	return flags
}

// EncodedLen returns the exact encoded payload size.
func (c *Connect) EncodedLen() int {
	n := 1 + 2 + 2 + len(c.ClientID)
	if c.UsernameFlag {
		n += 2 + len(c.Username)
	}
	if c.PasswordFlag {
		n += 2 + len(c.Password)
	}
	return n
}

// Encode appends the CONNECT payload to dst.
func (c *Connect) Encode(dst []byte) []byte {
	dst = append(dst, c.flags())
	dst = AppendUint16(dst, c.KeepAlive)
	dst = AppendString(dst, c.ClientID)
	if c.UsernameFlag {
		dst = AppendString(dst, c.Username)
	}
	if c.PasswordFlag {
		dst = AppendBytes(dst, c.Password)
	}
	return dst
}

// DecodeConnect decodes a CONNECT payload.
func DecodeConnect(buf []byte) (*Connect, error) {
	if len(buf) < 3 {
		return nil, &BufferTooShortError{Expected: 3, Actual: len(buf)}
	}

	flags := buf[0]
	c := &Connect{
		CleanSession: flags&connectFlagCleanSession != 0,
		UsernameFlag: flags&connectFlagUsername != 0,
		PasswordFlag: flags&connectFlagPassword != 0,
	}

	keepAlive, err := ReadUint16(buf, 1)
	if err != nil {
		return nil, err
	}
	c.KeepAlive = keepAlive

	clientID, off, err := ReadString(buf, 3)
	if err != nil {
		return nil, err
	}
	c.ClientID = clientID

	if c.UsernameFlag {
		username, next, err := ReadString(buf, off)
		if err != nil {
			return nil, err
		}
		c.Username = username
		off = next
	}

	if c.PasswordFlag {
		password, _, err := ReadBytes(buf, off)
		if err != nil {
			return nil, err
		}
		c.Password = password
	}

	return c, nil
}
