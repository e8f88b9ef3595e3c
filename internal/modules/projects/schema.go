package projects

var schema = []string{
	`DO $$ BEGIN
		CREATE TYPE project_status AS ENUM ('planning', 'active', 'on_hold', 'completed', 'cancelled');
	EXCEPTION
		WHEN duplicate_object THEN null;
	END $$`,

	`CREATE TABLE IF NOT EXISTS projects (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		description TEXT,
		start_date TIMESTAMP,
		end_date TIMESTAMP,
		status project_status DEFAULT 'planning',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP
	)`,

	// Tables created before status existed.
	`DO $$ BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'projects' AND column_name = 'status'
		) THEN
			ALTER TABLE projects ADD COLUMN status project_status DEFAULT 'planning';
		END IF;
	END $$`,

	`CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name)`,
}
