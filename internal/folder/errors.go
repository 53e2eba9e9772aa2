package folder

import "fmt"

// FolderError is the domain error family for a single account's folder
// fetch. It carries the account identity so server logs stay attributable
// while the client sees only a sanitized warning.
type FolderError struct {
	AccountID   int
	AccountName string
	Err         error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("folder: account %d (%s): %v", e.AccountID, e.AccountName, e.Err)
}

func (e *FolderError) Unwrap() error { return e.Err }

// ProtocolError is the messaging-protocol error family raised by non-mail
// messaging services.
type ProtocolError struct {
	Service string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("folder: messaging service %s: %v", e.Service, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// recognized reports whether an error belongs to one of the two error
// families the aggregation absorbs into empty slots. Anything else is fatal
// to the whole request.
func recognized(err error) bool {
	switch err.(type) {
	case *FolderError, *ProtocolError:
		return true
	}
	return false
}
