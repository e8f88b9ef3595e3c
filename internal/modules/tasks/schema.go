package tasks

// The projects module must have run first: tasks reference projects(id).
var schema = []string{
	`DO $$ BEGIN
		CREATE TYPE task_status AS ENUM ('pending', 'in_progress', 'completed', 'cancelled');
	EXCEPTION
		WHEN duplicate_object THEN null;
	END $$`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id SERIAL PRIMARY KEY,
		project_id INTEGER REFERENCES projects(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		assignee VARCHAR(100) NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		priority INTEGER NOT NULL CHECK (priority >= 1 AND priority <= 5),
		status task_status DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP
	)`,

	`DO $$ BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'tasks' AND column_name = 'status'
		) THEN
			ALTER TABLE tasks ADD COLUMN status task_status DEFAULT 'pending';
		END IF;
	END $$`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee)`,
}
