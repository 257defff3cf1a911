package captivedns

// DNS wire format constants.
const (
	// headerSize is the fixed DNS header length. Anything shorter is
	// not a query and is dropped.
	headerSize = 12

	// maxPacketSize bounds the receive buffer. Oversized datagrams are
	// truncated by the read; the tail is never examined.
	maxPacketSize = 512

	// answerTTL is the TTL of the synthetic answer in seconds. Short,
	// so clients re-ask once they are on a real network.
	answerTTL = 28
)

// answerFixed is the fixed part of the synthetic answer record:
// a compression pointer to the question name at offset 12, type A,
// class IN, TTL and a 4-byte RDLENGTH. The address follows.
var answerFixed = []byte{
	0xc0, 0x0c, // NAME: pointer to offset 12
	0x00, 0x01, // TYPE: A
	0x00, 0x01, // CLASS: IN
	0x00, 0x00, 0x00, answerTTL, // TTL
	0x00, 0x04, // RDLENGTH: 4
}

// buildResponse turns a query datagram into a response claiming the
// queried name resolves to addr (an IPv4 address in 4-byte form).
// The output is the input with three header bytes patched and exactly
// 16 bytes appended; the query section is carried through untouched.
func buildResponse(query []byte, addr [4]byte) []byte {
	resp := make([]byte, len(query), len(query)+len(answerFixed)+4)
	copy(resp, query)

	resp[2] |= 0x80 // QR: response
	resp[3] |= 0x80 // RA: recursion available
	resp[7] = 1     // ANCOUNT: one answer

	resp = append(resp, answerFixed...)
	resp = append(resp, addr[:]...)
	return resp
}
