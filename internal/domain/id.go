package domain

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// NewBookingID derives the booking id from its immutable creation fields.
// The same inputs always produce the same id.
func NewBookingID(
	listingID Hash,
	host, guest AccountID,
	start, end Moment,
	amount Balance,
) Hash {
	buf := make([]byte, 0, len(listingID)+8+len(host)+len(guest)+24)
	buf = append(buf, listingID[:]...)
	buf = appendString(buf, string(host))
	buf = appendString(buf, string(guest))
	buf = binary.BigEndian.AppendUint64(buf, uint64(start))
	buf = binary.BigEndian.AppendUint64(buf, uint64(end))
	buf = binary.BigEndian.AppendUint64(buf, uint64(amount))

	return blake2b.Sum256(buf)
}

// NewListingID derives a listing id from the owner and the listing's identifying
// text fields.
func NewListingID(owner AccountID, name, address string) Hash {
	buf := appendString(nil, string(owner))
	buf = appendString(buf, name)
	buf = appendString(buf, address)

	return blake2b.Sum256(buf)
}

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
