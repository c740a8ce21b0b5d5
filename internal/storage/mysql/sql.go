package mysql

// -----------------------------------------------------------------------------
// USERS & PROFILES
// -----------------------------------------------------------------------------

const insertUserSQL = `
INSERT INTO users (id, email, role, created_at)
VALUES (:id, :email, :role, :created_at)
`

const insertProfileSQL = `
INSERT INTO profiles
  (user_id, role, full_name, phone, avatar_url, bio, university, company_name, agency_name, updated_at)
VALUES
  (:user_id, :role, :full_name, :phone, :avatar_url, :bio, :university, :company_name, :agency_name, :updated_at)
`

// role is never updated; it is fixed at signup.
const updateProfileSQL = `
UPDATE profiles SET
  full_name    = :full_name,
  phone        = :phone,
  avatar_url   = :avatar_url,
  bio          = :bio,
  university   = :university,
  company_name = :company_name,
  agency_name  = :agency_name,
  updated_at   = :updated_at
WHERE user_id = :user_id
`

const userColumns = `id, email, role, created_at`

const profileColumns = `user_id, role, full_name, phone, avatar_url, bio, university, company_name, agency_name, updated_at`

const insertCredentialSQL = `
INSERT INTO credentials (uid, email, password_hash, created_at)
VALUES (?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// HOSTELS
// -----------------------------------------------------------------------------

const hostelColumns = "h.id, h.owner_id, h.agent_id, h.status, h.completed_step, h.name, h.`type`, h.description, " +
	"h.address, h.city, h.lat, h.lon, h.nearby_university, h.price_cents, h.currency, h.rooms, " +
	"h.available_rooms, h.gender_policy, h.amenities, h.images, h.created_at, h.updated_at"

const insertHostelSQL = "INSERT INTO hostels\n" +
	"  (id, owner_id, agent_id, status, completed_step, name, `type`, description, address, city, lat, lon,\n" +
	"   nearby_university, price_cents, currency, rooms, available_rooms, gender_policy, amenities, images,\n" +
	"   created_at, updated_at)\n" +
	"VALUES\n" +
	"  (:id, :owner_id, :agent_id, :status, :completed_step, :name, :type, :description, :address, :city, :lat, :lon,\n" +
	"   :nearby_university, :price_cents, :currency, :rooms, :available_rooms, :gender_policy, :amenities, :images,\n" +
	"   :created_at, :updated_at)"

// owner_id, agent_id and created_at are immutable after creation. Room
// counts are left to adjustRoomsSQL and the booking transitions.
const updateHostelSQL = "UPDATE hostels SET\n" +
	"  status            = :status,\n" +
	"  completed_step    = :completed_step,\n" +
	"  name              = :name,\n" +
	"  `type`            = :type,\n" +
	"  description       = :description,\n" +
	"  address           = :address,\n" +
	"  city              = :city,\n" +
	"  lat               = :lat,\n" +
	"  lon               = :lon,\n" +
	"  nearby_university = :nearby_university,\n" +
	"  price_cents       = :price_cents,\n" +
	"  currency          = :currency,\n" +
	"  gender_policy     = :gender_policy,\n" +
	"  amenities         = :amenities,\n" +
	"  images            = :images,\n" +
	"  updated_at        = :updated_at\n" +
	"WHERE id = :id"

// available_rooms is shifted relative to the stored value so concurrent
// booking decisions are kept. Assignments run left to right.
const adjustRoomsSQL = `
UPDATE hostels SET
  available_rooms = LEAST(?, GREATEST(0, available_rooms + ?)),
  rooms           = ?,
  updated_at      = ?
WHERE id = ?
`

const landingStatsSQL = `
SELECT COUNT(*) AS hostels, COUNT(DISTINCT LOWER(city)) AS cities
FROM hostels
WHERE status = 'published'
`

// -----------------------------------------------------------------------------
// BOOKINGS
// -----------------------------------------------------------------------------

const bookingColumns = `b.id, b.hostel_id, h.name AS hostel_name, b.student_id, b.owner_id, b.agent_id,
  b.move_in, b.months, b.total_cents, b.currency, b.note, b.status, b.created_at, b.updated_at`

const insertBookingSQL = `
INSERT INTO bookings
  (id, hostel_id, student_id, owner_id, agent_id, move_in, months, total_cents, currency, note, status, created_at, updated_at)
VALUES
  (:id, :hostel_id, :student_id, :owner_id, :agent_id, :move_in, :months, :total_cents, :currency, :note, :status, :created_at, :updated_at)
`

// Serializes booking requests per hostel until the transaction ends.
const lockHostelSQL = `SELECT id FROM hostels WHERE id = ? FOR UPDATE`

const countActiveBookingsSQL = `
SELECT COUNT(*) FROM bookings
WHERE student_id = ? AND hostel_id = ? AND status IN ('pending', 'confirmed')
FOR UPDATE
`

// Guarded by the expected current status so concurrent decisions cannot
// both succeed.
const transitionBookingSQL = `
UPDATE bookings SET status = ?, updated_at = ?
WHERE id = ? AND status = ?
`

const takeRoomSQL = `
UPDATE hostels SET available_rooms = available_rooms - 1, updated_at = ?
WHERE id = (SELECT hostel_id FROM bookings WHERE id = ?) AND available_rooms > 0
`

const releaseRoomSQL = `
UPDATE hostels SET available_rooms = LEAST(rooms, available_rooms + 1), updated_at = ?
WHERE id = (SELECT hostel_id FROM bookings WHERE id = ?)
`

// -----------------------------------------------------------------------------
// PAYMENTS, FAVORITES, CONTACT
// -----------------------------------------------------------------------------

const paymentColumns = `id, booking_id, student_id, owner_id, agent_id, amount_cents, currency, method, status, reference, created_at`

const insertPaymentSQL = `
INSERT INTO payments
  (id, booking_id, student_id, owner_id, agent_id, amount_cents, currency, method, status, reference, created_at)
VALUES
  (:id, :booking_id, :student_id, :owner_id, :agent_id, :amount_cents, :currency, :method, :status, :reference, :created_at)
`

const insertFavoriteSQL = `
INSERT IGNORE INTO favorites (user_id, hostel_id, created_at)
VALUES (?, ?, ?)
`

const deleteFavoriteSQL = `DELETE FROM favorites WHERE user_id = ? AND hostel_id = ?`

const listFavoritesSQL = `
SELECT ` + hostelColumns + `
FROM favorites f
JOIN hostels h ON h.id = f.hostel_id
WHERE f.user_id = ? AND h.status = 'published'
ORDER BY f.created_at DESC
`

const insertContactSQL = `
INSERT INTO contact_messages (id, name, email, message, created_at)
VALUES (?, ?, ?, ?, ?)
`
