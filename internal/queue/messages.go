package queue

// IngestMsg asks the worker to process one uploaded document. ObjectKey
// points at the extracted text in object storage.
type IngestMsg struct {
	DocumentID string `json:"document_id"`
	OwnerID    string `json:"owner_id"`
	Filename   string `json:"filename"`
	ObjectKey  string `json:"object_key"`
}

// DeleteMsg asks the worker to remove a document from both stores and
// from object storage.
type DeleteMsg struct {
	DocumentID string `json:"document_id"`
	ObjectKey  string `json:"object_key"`
}
