package trx

// UsageError reports a violation of the serializer's input contract. It
// means the calling code is wrong, not the test data: engine-supplied text
// can never produce one.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return "trx: " + e.Message
}
