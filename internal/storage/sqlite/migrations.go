package sqlite

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// birth_date is TEXT (YYYY-MM-DD) so the driver hands back the exact date.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    capacity INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    birth_date TEXT NOT NULL,
    email TEXT,
    status TEXT NOT NULL,
    group_id INTEGER,
    FOREIGN KEY (group_id) REFERENCES groups(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_members_group_status ON members(group_id, status);
`

// dropSchema removes the tables in dependency order.
const dropSchema = `
DROP TABLE IF EXISTS members;
DROP TABLE IF EXISTS groups;
`
