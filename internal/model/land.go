package model

import "time"

// Land represents a rentable land parcel as stored in the `lands`
// table. The borrowed/free state is not a column here; it is derived
// from the presence of an active row in the rentals table, which is
// the single enforcement point for the one-borrower invariant.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique parcel name.
//  Address     – street address, indexed for search.
//  Size        – parcel size; nil when unspecified.
//  Location    – free-form locality used for search.
//  Description – optional description, indexed for search.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Land struct {
	ID          uint64    // lands.id
	Name        string    // lands.name
	Address     string    // lands.address
	Size        *float64  // lands.size (nullable)
	Location    string    // lands.location
	Description *string   // lands.description (nullable)
	CreatedAt   time.Time // lands.created_at
	UpdatedAt   time.Time // lands.updated_at
}

// Image is a stored attachment belonging to a land parcel. Label is
// the display name chosen by the uploader; StoredName is the
// generated collision-resistant filename the bytes live under. The
// label is never used as a storage path.
//
// Fields:
//  ID         – primary key identifier.
//  LandID     – owning land parcel; rows cascade on land deletion.
//  Label      – display name shown to clients.
//  StoredName – generated filename on disk.
//  URL        – public URL (base URL + stored name).
//  CreatedAt  – creation timestamp.
type Image struct {
	ID         uint64    // images.id
	LandID     uint64    // images.land_id
	Label      string    // images.label
	StoredName string    // images.stored_name
	URL        string    // images.url
	CreatedAt  time.Time // images.created_at
}
